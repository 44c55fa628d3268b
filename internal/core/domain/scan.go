package domain

import "time"

// ScanType identifies which processing checkpoint a scan was taken at.
type ScanType string

const (
	ScanCollection         ScanType = "COLLECTION"
	ScanWarehouseReception ScanType = "WAREHOUSE_RECEPTION"
	ScanPreWash            ScanType = "PRE_WASH"
	ScanPostWash           ScanType = "POST_WASH"
	ScanPostDry            ScanType = "POST_DRY"
	ScanFinalCount         ScanType = "FINAL_COUNT"
	ScanDelivery           ScanType = "DELIVERY"
)

// ScanTypeForStage maps the stage a guide is entering to the checkpoint scan
// recorded there. POST_DRY lands on whichever stage directly follows drying,
// which differs by service route. Stages without a checkpoint (IN_TRANSIT,
// IN_PROCESS, FOLDING, personal PACKAGING, LOADING, COMPLETED) return false.
func ScanTypeForStage(stage Stage, serviceType ServiceType) (ScanType, bool) {
	switch stage {
	case StageCollected:
		return ScanCollection, true
	case StageReceived:
		return ScanWarehouseReception, true
	case StageWashing:
		return ScanPreWash, true
	case StageDrying:
		return ScanPostWash, true
	case StageIroning:
		return ScanPostDry, true
	case StagePackaging:
		if serviceType == ServiceIndustrial {
			return ScanPostDry, true
		}
		return "", false
	case StageShipping:
		return ScanFinalCount, true
	case StageDelivery:
		return ScanDelivery, true
	default:
		return "", false
	}
}

// TagScanSample is one raw reader event. Samples only exist between the
// reader and the intake pipeline; they are folded into an RfidScanRecord and
// discarded.
type TagScanSample struct {
	EPC       string    `json:"epc"`
	RSSI      int       `json:"rssi"`
	Timestamp time.Time `json:"timestamp"`
}

// RfidScanRecord is the immutable log of one scan operation at one stage.
// Revisiting a stage updates the existing record rather than appending a
// second one.
type RfidScanRecord struct {
	ID              string    `json:"id"`
	GuideID         string    `json:"guide_id"`
	ScanType        ScanType  `json:"scan_type"`
	ScannedCodes    []string  `json:"scanned_rfid_codes"`
	ScannedQuantity int       `json:"scanned_quantity"`
	Location        string    `json:"location"`
	Operator        string    `json:"operator"`
	UnexpectedCodes []string  `json:"unexpected_codes,omitempty"`
	DiscrepancyNote string    `json:"discrepancy_note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type ScanInput struct {
	GuideID         string   `json:"guide_id"`
	ScanType        ScanType `json:"scan_type"`
	ScannedCodes    []string `json:"scanned_rfid_codes"`
	ScannedQuantity int      `json:"scanned_quantity"`
	Location        string   `json:"location"`
	Operator        string   `json:"operator"`
	UnexpectedCodes []string `json:"unexpected_codes,omitempty"`
	DiscrepancyNote string   `json:"discrepancy_note,omitempty"`
}

// NormalizedScan is the intake pipeline's output: deduplicated tags with the
// scan metadata attached. Downstream components never see raw samples.
type NormalizedScan struct {
	GuideID  string
	Stage    Stage
	ScanType ScanType
	Codes    []string
	Quantity int
	Location string
	Operator string
	BranchID string
}

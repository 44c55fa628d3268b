package domain

import "time"

type ChargeType string

const (
	ChargeByWeight  ChargeType = "BY_WEIGHT"
	ChargeByGarment ChargeType = "BY_GARMENT"
)

// Guide is one shipment/work order pushed through the processing stages.
type Guide struct {
	ID           string      `json:"id"`
	GuideNumber  string      `json:"guide_number"`
	ClientID     string      `json:"client_id"`
	BranchID     string      `json:"branch_id"`
	ServiceType  ServiceType `json:"service_type"`
	ChargeType   ChargeType  `json:"charge_type"`
	GarmentCount int         `json:"garment_count"`
	TotalWeight  float64     `json:"total_weight"`
	Status       Stage       `json:"status"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// GuideInput is the creation payload for a guide. Status is owned by the
// backend at creation time; the saga activates the guide into COLLECTED once
// all three creation steps commit.
type GuideInput struct {
	ClientID     string      `json:"client_id"`
	BranchID     string      `json:"branch_id"`
	ServiceType  ServiceType `json:"service_type"`
	ChargeType   ChargeType  `json:"charge_type"`
	GarmentCount int         `json:"garment_count"`
	TotalWeight  float64     `json:"total_weight"`
}

// GuidePatch is a partial guide update. Nil fields are left untouched.
// ExpectedStatus makes the write conditional: the backend must reject the
// patch when the live status no longer matches (compare-and-set, not a lock).
type GuidePatch struct {
	Status         *Stage `json:"status,omitempty"`
	Active         *bool  `json:"active,omitempty"`
	ExpectedStatus *Stage `json:"expected_status,omitempty"`
}

package domain

type TransitionStatus string

const (
	// TransitionApplied: the edge was valid, reconciliation was perfect, the
	// status write committed.
	TransitionApplied TransitionStatus = "APPLIED"
	// TransitionAppliedWithDiscrepancy: the operator explicitly confirmed an
	// advance despite missing/extra tags; the discrepancy is persisted.
	TransitionAppliedWithDiscrepancy TransitionStatus = "APPLIED_WITH_DISCREPANCY"
	// TransitionConfirmationRequired: reconciliation found a mismatch and no
	// override was given. Nothing was written.
	TransitionConfirmationRequired TransitionStatus = "CONFIRMATION_REQUIRED"
	TransitionRejectedInvalidEdge  TransitionStatus = "REJECTED_INVALID_EDGE"
	TransitionRejectedNeedsAuth    TransitionStatus = "REJECTED_NEEDS_AUTHORIZATION"
)

// TransitionRequest carries everything the authority needs to decide one
// stage move. Guide is the state the operator last observed; the authority
// re-reads the live guide and rejects the request if the status moved
// underneath (compare-and-set, not a lock).
type TransitionRequest struct {
	Guide              *Guide
	Target             Stage
	Scan               NormalizedScan
	Action             ActionType
	Actor              string
	Role               ActorRole
	ConfirmDiscrepancy bool
	DiscrepancyNote    string
}

type TransitionOutcome struct {
	Status  TransitionStatus `json:"status"`
	Guide   *Guide           `json:"guide,omitempty"`
	Missing []string         `json:"missing,omitempty"`
	Extra   []string         `json:"extra,omitempty"`
}

// Applied reports whether the status write committed.
func (o TransitionOutcome) Applied() bool {
	return o.Status == TransitionApplied || o.Status == TransitionAppliedWithDiscrepancy
}

// SagaResult holds whatever the creation saga managed to create. On failure
// the already-committed resources are still populated so the caller can show
// the guide number in the remediation message.
type SagaResult struct {
	Guide  *Guide              `json:"guide,omitempty"`
	Detail *GuideGarmentDetail `json:"detail,omitempty"`
	Scan   *RfidScanRecord     `json:"scan,omitempty"`
}

// StageContext is the metadata the intake pipeline attaches to a scan. The
// scan type is always derived from the stage here, never inferred from tag
// content. AllowEmpty covers the stages that accept a zero-garment scan.
type StageContext struct {
	GuideID     string
	Stage       Stage
	ServiceType ServiceType
	Location    string
	Operator    string
	BranchID    string
	AllowEmpty  bool
}

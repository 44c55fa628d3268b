package domain

import "time"

// DiscrepancyEntry is one audited reconciliation mismatch that an operator
// explicitly advanced through. Missing/Extra are kept verbatim so the audit
// trail can reconstruct exactly what the reader saw.
type DiscrepancyEntry struct {
	ID        string    `json:"id"`
	GuideID   string    `json:"guide_id"`
	Stage     Stage     `json:"stage"`
	Missing   []string  `json:"missing"`
	Extra     []string  `json:"extra"`
	Note      string    `json:"note,omitempty"`
	Operator  string    `json:"operator"`
	CreatedAt time.Time `json:"created_at"`
}

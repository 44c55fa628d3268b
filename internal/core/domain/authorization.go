package domain

import "time"

type AuthorizationStatus string

const (
	AuthorizationPending  AuthorizationStatus = "PENDING"
	AuthorizationApproved AuthorizationStatus = "APPROVED"
	AuthorizationRejected AuthorizationStatus = "REJECTED"
)

type EntityType string

const (
	EntityGuide         EntityType = "GUIDE"
	EntityGarmentDetail EntityType = "GUIDE_GARMENT_DETAIL"
)

type ActionType string

const (
	ActionEdit         ActionType = "EDIT"
	ActionStageAdvance ActionType = "STAGE_ADVANCE"
)

// AuthorizationRequest tracks one elevated-action approval. At most one
// active request gates a given (entity, action) pair; an approval is
// single-use and must be consumed once acted upon.
type AuthorizationRequest struct {
	ID         string              `json:"id"`
	EntityType EntityType          `json:"entity_type"`
	EntityID   string              `json:"entity_id"`
	ActionType ActionType          `json:"action_type"`
	Requester  string              `json:"requester"`
	Status     AuthorizationStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type AuthorizationRequestInput struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	ActionType ActionType `json:"action_type"`
	Requester  string     `json:"requester"`
}

// AuthorizationDecision is the gate's answer to "is this action allowed
// right now". Authorized is true only for an approved, unconsumed request.
type AuthorizationDecision struct {
	Authorized      bool                `json:"has_authorization"`
	Status          AuthorizationStatus `json:"status"`
	AuthorizationID string              `json:"authorization_id,omitempty"`
}

package domain

import "time"

// GuideGarmentDetail describes the physical items attached to one guide.
// Created once per guide during the creation saga; editable afterwards,
// subject to elevated authorization for industrial-service garments.
type GuideGarmentDetail struct {
	ID           string    `json:"id"`
	GuideID      string    `json:"guide_id"`
	GarmentType  string    `json:"garment_type"`
	Color        string    `json:"color"`
	Services     []string  `json:"services"`
	Weight       float64   `json:"weight"`
	Quantity     int       `json:"quantity"`
	Novelties    string    `json:"novelties,omitempty"`
	LabelPrinted bool      `json:"label_printed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type GarmentDetailInput struct {
	GuideID     string   `json:"guide_id"`
	GarmentType string   `json:"garment_type"`
	Color       string   `json:"color"`
	Services    []string `json:"services"`
	Weight      float64  `json:"weight"`
	Quantity    int      `json:"quantity"`
	Novelties   string   `json:"novelties,omitempty"`
}

// ActorRole gates restricted edits. Superadmins bypass the authorization
// gate; everyone else needs an approved, unconsumed authorization to edit an
// industrial garment.
type ActorRole string

const (
	RoleOperator   ActorRole = "OPERATOR"
	RoleSupervisor ActorRole = "SUPERVISOR"
	RoleSuperadmin ActorRole = "SUPERADMIN"
)

package ports

import (
	"context"

	"github.com/texcare/guide-tracker/internal/core/domain"
)

// GuideBackend is the slice of the remote REST layer the core writes guides
// through. It offers no multi-resource transaction and no delete-on-failure
// primitive; the creation saga's error policy is built around that.
type GuideBackend interface {
	CreateGuide(ctx context.Context, input domain.GuideInput) (*domain.Guide, error)
	GetGuide(ctx context.Context, id string) (*domain.Guide, error)
	PatchGuide(ctx context.Context, id string, patch domain.GuidePatch) (*domain.Guide, error)
	CreateGarmentDetail(ctx context.Context, input domain.GarmentDetailInput) (*domain.GuideGarmentDetail, error)
}

// ScanBackend persists RFID scan records. A stage revisit updates the
// existing record instead of creating a second one.
type ScanBackend interface {
	CreateScan(ctx context.Context, input domain.ScanInput) (*domain.RfidScanRecord, error)
	UpdateScan(ctx context.Context, id string, input domain.ScanInput) (*domain.RfidScanRecord, error)
	LatestScan(ctx context.Context, guideID string) (*domain.RfidScanRecord, error)
}

// AuthorizationService is the remote approval workflow behind the gate.
type AuthorizationService interface {
	CheckAuthorization(ctx context.Context, entityType domain.EntityType, entityID string, action domain.ActionType) (domain.AuthorizationDecision, error)
	CreateAuthorizationRequest(ctx context.Context, input domain.AuthorizationRequestInput) (*domain.AuthorizationRequest, error)
}

// TagSource streams raw reader samples. Subscribe blocks until ctx is done;
// cancelling ctx is the unsubscribe handle.
type TagSource interface {
	Subscribe(ctx context.Context, handler func(domain.TagScanSample)) error
}

// DiscrepancyJournal is the local audit store for reconciliation
// discrepancies that an operator chose to advance through anyway.
type DiscrepancyJournal interface {
	RecordDiscrepancy(ctx context.Context, entry domain.DiscrepancyEntry) error
	ListByGuide(ctx context.Context, guideID string) ([]domain.DiscrepancyEntry, error)
}

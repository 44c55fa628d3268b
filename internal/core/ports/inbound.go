package ports

import (
	"context"

	"github.com/texcare/guide-tracker/internal/core/domain"
)

// GuideCreator is the inbound contract for the three-step creation saga.
type GuideCreator interface {
	CreateGuideWithDetailAndScan(ctx context.Context, guide domain.GuideInput, detail domain.GarmentDetailInput, scan domain.ScanInput) (*domain.SagaResult, error)
}

// TransitionAuthority validates and applies stage transitions. It is the
// sole writer of guide status.
type TransitionAuthority interface {
	RequestTransition(ctx context.Context, req domain.TransitionRequest) (domain.TransitionOutcome, error)
}

// ScanIntake normalizes raw reader samples into a scan the authority and
// reconciler can trust: deduplicated, counted, typed by stage.
type ScanIntake interface {
	Intake(samples []domain.TagScanSample, sctx domain.StageContext) (domain.NormalizedScan, error)
}

// AuthorizationGate answers whether a restricted action may proceed and
// tracks approval consumption so one approval cannot cover two edits.
type AuthorizationGate interface {
	Check(ctx context.Context, entityType domain.EntityType, entityID string, action domain.ActionType) (domain.AuthorizationDecision, error)
	Request(ctx context.Context, input domain.AuthorizationRequestInput) (*domain.AuthorizationRequest, error)
	Consume(authorizationID string)
	AwaitDecision(ctx context.Context, entityType domain.EntityType, entityID string, action domain.ActionType) (domain.AuthorizationDecision, error)
}

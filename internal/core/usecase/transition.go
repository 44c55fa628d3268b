package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/texcare/guide-tracker/internal/core/domain"
	"github.com/texcare/guide-tracker/internal/core/ports"
)

// TransitionAuthorityUseCase is the sole writer of guide status. Every write
// is conditioned on the live status read immediately beforehand: if another
// device moved the guide since the operator last observed it, the request is
// rejected rather than blindly overwritten.
type TransitionAuthorityUseCase struct {
	guides  ports.GuideBackend
	scans   ports.ScanBackend
	gate    ports.AuthorizationGate
	journal ports.DiscrepancyJournal
}

func NewTransitionAuthorityUseCase(
	guides ports.GuideBackend,
	scans ports.ScanBackend,
	gate ports.AuthorizationGate,
	journal ports.DiscrepancyJournal,
) *TransitionAuthorityUseCase {
	return &TransitionAuthorityUseCase{
		guides:  guides,
		scans:   scans,
		gate:    gate,
		journal: journal,
	}
}

func (uc *TransitionAuthorityUseCase) RequestTransition(ctx context.Context, req domain.TransitionRequest) (domain.TransitionOutcome, error) {
	if req.Guide == nil {
		return domain.TransitionOutcome{}, domain.WrapError(domain.ErrInvalidInput, "request transition", errors.New("guide is required"))
	}
	if req.Scan.GuideID != "" && req.Scan.GuideID != req.Guide.ID {
		return domain.TransitionOutcome{}, domain.WrapError(domain.ErrInvalidInput, "request transition", errors.New("scan belongs to a different guide"))
	}
	if !domain.IsKnownStage(req.Target) {
		return domain.TransitionOutcome{}, domain.WrapError(domain.ErrInvalidInput, "request transition", fmt.Errorf("unknown target stage %q", req.Target))
	}

	live, err := uc.guides.GetGuide(ctx, req.Guide.ID)
	if err != nil {
		return domain.TransitionOutcome{}, fmt.Errorf("read live guide: %w", err)
	}

	// Stale observation: the status moved since the operator read it.
	if live.Status != req.Guide.Status {
		return domain.TransitionOutcome{Status: domain.TransitionRejectedInvalidEdge}, nil
	}
	if !domain.IsValidTransition(live.Status, req.Target, live.ServiceType) {
		return domain.TransitionOutcome{Status: domain.TransitionRejectedInvalidEdge}, nil
	}

	authorizationID, outcome, rejected := uc.gateRestrictedEdit(ctx, req, live)
	if rejected {
		return outcome, nil
	}

	// A target without a checkpoint carries no scan, so there is nothing to
	// reconcile against: the move is a pure status advance.
	var prior *domain.RfidScanRecord
	var result domain.Reconciliation
	if req.Scan.ScanType != "" {
		prior, err = uc.scans.LatestScan(ctx, live.ID)
		if err != nil {
			return domain.TransitionOutcome{}, fmt.Errorf("load previous stage scan: %w", err)
		}
		var expected []string
		if prior != nil {
			expected = prior.ScannedCodes
		}

		result = domain.Reconcile(expected, req.Scan.Codes)
		if !result.IsPerfect() && !req.ConfirmDiscrepancy {
			// Never advance silently on a mismatch; the operator has to say
			// "continue anyway" first. The approval, if any, stays unspent:
			// nothing has been acted upon yet.
			return domain.TransitionOutcome{
				Status:  domain.TransitionConfirmationRequired,
				Missing: result.Missing,
				Extra:   result.Extra,
			}, nil
		}
	}

	updated, err := uc.applyStatus(ctx, live, req.Target)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidTransition) {
			return domain.TransitionOutcome{Status: domain.TransitionRejectedInvalidEdge}, nil
		}
		return domain.TransitionOutcome{}, err
	}

	// The status write committed: the approval has now been acted upon and
	// must not cover a second edit.
	if authorizationID != "" {
		uc.gate.Consume(authorizationID)
	}

	if err := uc.appendScan(ctx, req, prior, result); err != nil {
		// The status write already committed; surface the partial state
		// instead of pretending nothing happened.
		return domain.TransitionOutcome{}, fmt.Errorf("status moved to %s but scan record failed for guide %s: %w", req.Target, live.GuideNumber, err)
	}

	if result.IsPerfect() {
		return domain.TransitionOutcome{Status: domain.TransitionApplied, Guide: updated}, nil
	}

	uc.auditDiscrepancy(ctx, req, live, result)
	return domain.TransitionOutcome{
		Status:  domain.TransitionAppliedWithDiscrepancy,
		Guide:   updated,
		Missing: result.Missing,
		Extra:   result.Extra,
	}, nil
}

// gateRestrictedEdit consults the authorization gate for industrial edits by
// non-privileged actors. Gate errors are answered as "needs authorization":
// fail-closed, never fail-open. A granted approval is returned, not consumed:
// consumption happens only once the status write commits, so an attempt that
// stops at the confirmation step leaves the approval usable for the
// confirmed resubmission.
func (uc *TransitionAuthorityUseCase) gateRestrictedEdit(ctx context.Context, req domain.TransitionRequest, live *domain.Guide) (string, domain.TransitionOutcome, bool) {
	if req.Action != domain.ActionEdit || live.ServiceType != domain.ServiceIndustrial || req.Role == domain.RoleSuperadmin {
		return "", domain.TransitionOutcome{}, false
	}

	decision, err := uc.gate.Check(ctx, domain.EntityGuide, live.ID, domain.ActionEdit)
	if err != nil || !decision.Authorized {
		if err != nil {
			slog.Warn("authorization_check_failed", "guide_id", live.ID, "error", err)
		}
		return "", domain.TransitionOutcome{Status: domain.TransitionRejectedNeedsAuth}, true
	}

	return decision.AuthorizationID, domain.TransitionOutcome{}, false
}

func (uc *TransitionAuthorityUseCase) applyStatus(ctx context.Context, live *domain.Guide, target domain.Stage) (*domain.Guide, error) {
	expectedStatus := live.Status
	patch := domain.GuidePatch{Status: &target, ExpectedStatus: &expectedStatus}
	updated, err := uc.guides.PatchGuide(ctx, live.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("patch guide status: %w", err)
	}
	return updated, nil
}

// appendScan writes the stage's scan record, or updates the existing record
// when the stage is being revisited. Stages without a checkpoint write
// nothing.
func (uc *TransitionAuthorityUseCase) appendScan(ctx context.Context, req domain.TransitionRequest, prior *domain.RfidScanRecord, result domain.Reconciliation) error {
	if req.Scan.ScanType == "" {
		return nil
	}

	input := domain.ScanInput{
		GuideID:         req.Guide.ID,
		ScanType:        req.Scan.ScanType,
		ScannedCodes:    req.Scan.Codes,
		ScannedQuantity: req.Scan.Quantity,
		Location:        req.Scan.Location,
		Operator:        req.Scan.Operator,
		UnexpectedCodes: result.Extra,
		DiscrepancyNote: req.DiscrepancyNote,
	}

	if prior != nil && prior.ScanType == req.Scan.ScanType {
		if _, err := uc.scans.UpdateScan(ctx, prior.ID, input); err != nil {
			return fmt.Errorf("update scan record: %w", err)
		}
		return nil
	}
	if _, err := uc.scans.CreateScan(ctx, input); err != nil {
		return fmt.Errorf("create scan record: %w", err)
	}
	return nil
}

// auditDiscrepancy records the confirmed mismatch locally. The journal is an
// audit trail, not a gate: a journal failure is logged and does not undo the
// transition.
func (uc *TransitionAuthorityUseCase) auditDiscrepancy(ctx context.Context, req domain.TransitionRequest, live *domain.Guide, result domain.Reconciliation) {
	if uc.journal == nil {
		return
	}
	entry := domain.DiscrepancyEntry{
		GuideID:   live.ID,
		Stage:     req.Target,
		Missing:   result.Missing,
		Extra:     result.Extra,
		Note:      req.DiscrepancyNote,
		Operator:  req.Scan.Operator,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.journal.RecordDiscrepancy(ctx, entry); err != nil {
		slog.Warn("discrepancy_audit_failed", "guide_id", live.ID, "stage", req.Target, "error", err)
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/texcare/guide-tracker/internal/core/domain"
	"github.com/texcare/guide-tracker/internal/core/ports"
)

// CreateGuideUseCase runs the three dependent creation calls against a
// backend that offers no multi-resource transaction. The steps are strictly
// sequential (step 2 needs step 1's id) and there is no rollback: a later
// failure leaves the earlier resources in place and the error says exactly
// which steps committed so a human can finish the job.
type CreateGuideUseCase struct {
	guides ports.GuideBackend
	scans  ports.ScanBackend
}

func NewCreateGuideUseCase(guides ports.GuideBackend, scans ports.ScanBackend) *CreateGuideUseCase {
	return &CreateGuideUseCase{guides: guides, scans: scans}
}

func (uc *CreateGuideUseCase) CreateGuideWithDetailAndScan(
	ctx context.Context,
	guideInput domain.GuideInput,
	detailInput domain.GarmentDetailInput,
	scanInput domain.ScanInput,
) (*domain.SagaResult, error) {
	result := &domain.SagaResult{}

	if err := validateSagaInputs(guideInput, detailInput, scanInput); err != nil {
		return result, err
	}

	guide, err := uc.guides.CreateGuide(ctx, guideInput)
	if err != nil {
		return result, &domain.SagaStepError{Step: domain.SagaStepGuide, Err: err}
	}
	result.Guide = guide

	detailInput.GuideID = guide.ID
	detail, err := uc.guides.CreateGarmentDetail(ctx, detailInput)
	if err != nil {
		return result, &domain.SagaStepError{
			Step:        domain.SagaStepGarmentDetail,
			Completed:   []int{domain.SagaStepGuide},
			GuideNumber: guide.GuideNumber,
			Err:         err,
		}
	}
	result.Detail = detail

	scanInput.GuideID = guide.ID
	scan, err := uc.scans.CreateScan(ctx, scanInput)
	if err != nil {
		return result, &domain.SagaStepError{
			Step:        domain.SagaStepScan,
			Completed:   []int{domain.SagaStepGuide, domain.SagaStepGarmentDetail},
			GuideNumber: guide.GuideNumber,
			Err:         err,
		}
	}
	result.Scan = scan

	// All three creates committed; move the guide out of its implicit
	// creation-pending state. This is not a fourth saga step: the resources
	// exist, so a failed activation keeps the result and names the guide.
	collected := domain.StageCollected
	activated, err := uc.guides.PatchGuide(ctx, guide.ID, domain.GuidePatch{Status: &collected})
	if err != nil {
		return result, fmt.Errorf("activate guide %s into %s: %w", guide.GuideNumber, domain.StageCollected, err)
	}
	result.Guide = activated

	return result, nil
}

// validateSagaInputs rejects malformed payloads before any network call.
func validateSagaInputs(guideInput domain.GuideInput, detailInput domain.GarmentDetailInput, scanInput domain.ScanInput) error {
	if guideInput.ClientID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "create guide", errors.New("client id is required"))
	}
	if guideInput.ServiceType != domain.ServiceIndustrial && guideInput.ServiceType != domain.ServicePersonal {
		return domain.WrapError(domain.ErrInvalidInput, "create guide", fmt.Errorf("unknown service type %q", guideInput.ServiceType))
	}
	if detailInput.Quantity <= 0 {
		return domain.WrapError(domain.ErrInvalidInput, "create guide", errors.New("garment detail quantity must be positive"))
	}
	if scanInput.ScannedQuantity != len(scanInput.ScannedCodes) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"create guide",
			fmt.Errorf("scanned quantity %d does not match %d scanned codes", scanInput.ScannedQuantity, len(scanInput.ScannedCodes)),
		)
	}
	return nil
}

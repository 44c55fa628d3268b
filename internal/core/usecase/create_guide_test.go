package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/texcare/guide-tracker/internal/core/domain"
)

type sagaGuideFake struct {
	createErr error
	detailErr error
	patchErr  error

	createdGuide  *domain.Guide
	createdDetail *domain.GuideGarmentDetail
	patchCalls    []domain.GuidePatch
}

func (f *sagaGuideFake) CreateGuide(_ context.Context, input domain.GuideInput) (*domain.Guide, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdGuide = &domain.Guide{
		ID:          "g-1",
		GuideNumber: "G-2024-0001",
		ClientID:    input.ClientID,
		ServiceType: input.ServiceType,
	}
	return f.createdGuide, nil
}

func (f *sagaGuideFake) GetGuide(context.Context, string) (*domain.Guide, error) {
	return f.createdGuide, nil
}

func (f *sagaGuideFake) PatchGuide(_ context.Context, id string, patch domain.GuidePatch) (*domain.Guide, error) {
	f.patchCalls = append(f.patchCalls, patch)
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	updated := *f.createdGuide
	if patch.Status != nil {
		updated.Status = *patch.Status
	}
	return &updated, nil
}

func (f *sagaGuideFake) CreateGarmentDetail(_ context.Context, input domain.GarmentDetailInput) (*domain.GuideGarmentDetail, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	f.createdDetail = &domain.GuideGarmentDetail{ID: "d-1", GuideID: input.GuideID, Quantity: input.Quantity}
	return f.createdDetail, nil
}

type sagaScanFake struct {
	createErr error
	created   *domain.RfidScanRecord
}

func (f *sagaScanFake) CreateScan(_ context.Context, input domain.ScanInput) (*domain.RfidScanRecord, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &domain.RfidScanRecord{ID: "s-1", GuideID: input.GuideID, ScanType: input.ScanType}
	return f.created, nil
}

func (f *sagaScanFake) UpdateScan(context.Context, string, domain.ScanInput) (*domain.RfidScanRecord, error) {
	return nil, errors.New("not used")
}

func (f *sagaScanFake) LatestScan(context.Context, string) (*domain.RfidScanRecord, error) {
	return nil, nil
}

func validSagaInputs() (domain.GuideInput, domain.GarmentDetailInput, domain.ScanInput) {
	return domain.GuideInput{ClientID: "c-1", ServiceType: domain.ServicePersonal},
		domain.GarmentDetailInput{GarmentType: "shirt", Quantity: 4},
		domain.ScanInput{ScanType: domain.ScanCollection, ScannedCodes: []string{"E1", "E2"}, ScannedQuantity: 2}
}

func TestCreateGuideSagaSuccess(t *testing.T) {
	guides := &sagaGuideFake{}
	scans := &sagaScanFake{}
	uc := NewCreateGuideUseCase(guides, scans)

	guideInput, detailInput, scanInput := validSagaInputs()
	result, err := uc.CreateGuideWithDetailAndScan(context.Background(), guideInput, detailInput, scanInput)
	if err != nil {
		t.Fatalf("saga error = %v", err)
	}
	if result.Guide == nil || result.Detail == nil || result.Scan == nil {
		t.Fatalf("expected all three resources in result, got %+v", result)
	}
	if result.Detail.GuideID != "g-1" || result.Scan.GuideID != "g-1" {
		t.Fatalf("dependent steps did not reference the created guide id")
	}
	if result.Guide.Status != domain.StageCollected {
		t.Fatalf("Status = %s, want %s after activation", result.Guide.Status, domain.StageCollected)
	}
	if len(guides.patchCalls) != 1 {
		t.Fatalf("expected one activation patch, got %d", len(guides.patchCalls))
	}
}

func TestCreateGuideSagaStepOneFailure(t *testing.T) {
	guides := &sagaGuideFake{createErr: errors.New("backend down")}
	uc := NewCreateGuideUseCase(guides, &sagaScanFake{})

	guideInput, detailInput, scanInput := validSagaInputs()
	result, err := uc.CreateGuideWithDetailAndScan(context.Background(), guideInput, detailInput, scanInput)

	var stepErr *domain.SagaStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected SagaStepError, got %v", err)
	}
	if stepErr.Step != domain.SagaStepGuide || len(stepErr.Completed) != 0 {
		t.Fatalf("step = %d completed = %v, want step 1 with nothing committed", stepErr.Step, stepErr.Completed)
	}
	if result.Guide != nil {
		t.Fatal("no partial state should exist after a step 1 failure")
	}
}

func TestCreateGuideSagaStepTwoFailure(t *testing.T) {
	guides := &sagaGuideFake{detailErr: errors.New("detail rejected")}
	uc := NewCreateGuideUseCase(guides, &sagaScanFake{})

	guideInput, detailInput, scanInput := validSagaInputs()
	result, err := uc.CreateGuideWithDetailAndScan(context.Background(), guideInput, detailInput, scanInput)

	var stepErr *domain.SagaStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected SagaStepError, got %v", err)
	}
	if stepErr.Step != domain.SagaStepGarmentDetail {
		t.Fatalf("Step = %d, want 2", stepErr.Step)
	}
	if !reflect.DeepEqual(stepErr.Completed, []int{domain.SagaStepGuide}) {
		t.Fatalf("Completed = %v, want [1]", stepErr.Completed)
	}
	if stepErr.GuideNumber != "G-2024-0001" {
		t.Fatalf("GuideNumber = %q, want the headless guide's number", stepErr.GuideNumber)
	}
	if result.Guide == nil {
		t.Fatal("the created guide must still be returned for remediation")
	}
}

func TestCreateGuideSagaStepThreeFailure(t *testing.T) {
	guides := &sagaGuideFake{}
	scans := &sagaScanFake{createErr: errors.New("scan rejected")}
	uc := NewCreateGuideUseCase(guides, scans)

	guideInput, detailInput, scanInput := validSagaInputs()
	result, err := uc.CreateGuideWithDetailAndScan(context.Background(), guideInput, detailInput, scanInput)

	var stepErr *domain.SagaStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected SagaStepError, got %v", err)
	}
	if stepErr.Step != domain.SagaStepScan {
		t.Fatalf("Step = %d, want 3", stepErr.Step)
	}
	if !reflect.DeepEqual(stepErr.Completed, []int{domain.SagaStepGuide, domain.SagaStepGarmentDetail}) {
		t.Fatalf("Completed = %v, want [1 2]", stepErr.Completed)
	}
	if result.Guide == nil || result.Detail == nil {
		t.Fatal("committed resources must be returned alongside the step error")
	}
	if result.Guide.GuideNumber != "G-2024-0001" {
		t.Fatalf("GuideNumber = %q, want it preserved for the remediation message", result.Guide.GuideNumber)
	}
	if len(guides.patchCalls) != 0 {
		t.Fatal("activation must not run after a failed step")
	}
}

func TestCreateGuideSagaActivationFailureKeepsResult(t *testing.T) {
	guides := &sagaGuideFake{patchErr: errors.New("patch failed")}
	uc := NewCreateGuideUseCase(guides, &sagaScanFake{})

	guideInput, detailInput, scanInput := validSagaInputs()
	result, err := uc.CreateGuideWithDetailAndScan(context.Background(), guideInput, detailInput, scanInput)
	if err == nil {
		t.Fatal("expected activation error")
	}
	var stepErr *domain.SagaStepError
	if errors.As(err, &stepErr) {
		t.Fatalf("activation failure must not masquerade as a saga step, got step %d", stepErr.Step)
	}
	if result.Guide == nil || result.Detail == nil || result.Scan == nil {
		t.Fatal("all created resources must still be returned")
	}
}

func TestCreateGuideSagaValidatesBeforeNetwork(t *testing.T) {
	guides := &sagaGuideFake{}
	uc := NewCreateGuideUseCase(guides, &sagaScanFake{})

	tests := []struct {
		name   string
		mutate func(*domain.GuideInput, *domain.GarmentDetailInput, *domain.ScanInput)
	}{
		{"missing client", func(g *domain.GuideInput, _ *domain.GarmentDetailInput, _ *domain.ScanInput) { g.ClientID = "" }},
		{"unknown service type", func(g *domain.GuideInput, _ *domain.GarmentDetailInput, _ *domain.ScanInput) { g.ServiceType = "BULK" }},
		{"zero quantity", func(_ *domain.GuideInput, d *domain.GarmentDetailInput, _ *domain.ScanInput) { d.Quantity = 0 }},
		{"quantity/tag mismatch", func(_ *domain.GuideInput, _ *domain.GarmentDetailInput, s *domain.ScanInput) { s.ScannedQuantity = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guideInput, detailInput, scanInput := validSagaInputs()
			tt.mutate(&guideInput, &detailInput, &scanInput)

			_, err := uc.CreateGuideWithDetailAndScan(context.Background(), guideInput, detailInput, scanInput)
			if !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if guides.createdGuide != nil {
				t.Fatal("validation must happen before any network call")
			}
		})
	}
}

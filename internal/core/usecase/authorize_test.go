package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/texcare/guide-tracker/internal/core/domain"
)

type authServiceFake struct {
	decisions []domain.AuthorizationDecision
	errs      []error
	calls     int

	created *domain.AuthorizationRequest
}

func (f *authServiceFake) CheckAuthorization(context.Context, domain.EntityType, string, domain.ActionType) (domain.AuthorizationDecision, error) {
	i := f.calls
	f.calls++
	if i >= len(f.decisions) {
		i = len(f.decisions) - 1
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return domain.AuthorizationDecision{}, err
	}
	return f.decisions[i], nil
}

func (f *authServiceFake) CreateAuthorizationRequest(_ context.Context, input domain.AuthorizationRequestInput) (*domain.AuthorizationRequest, error) {
	f.created = &domain.AuthorizationRequest{
		ID:         "auth-1",
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		ActionType: input.ActionType,
		Requester:  input.Requester,
		Status:     domain.AuthorizationPending,
	}
	return f.created, nil
}

func TestCheckPendingIsNotAuthorized(t *testing.T) {
	service := &authServiceFake{decisions: []domain.AuthorizationDecision{
		{Authorized: false, Status: domain.AuthorizationPending},
	}}
	gate := NewAuthorizationGateUseCase(service, time.Millisecond)

	decision, err := gate.Check(context.Background(), domain.EntityGuide, "g-1", domain.ActionEdit)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if decision.Authorized {
		t.Fatal("PENDING must not be authorized")
	}
}

func TestApprovalIsSingleUse(t *testing.T) {
	approved := domain.AuthorizationDecision{
		Authorized:      true,
		Status:          domain.AuthorizationApproved,
		AuthorizationID: "auth-9",
	}
	service := &authServiceFake{decisions: []domain.AuthorizationDecision{approved}}
	gate := NewAuthorizationGateUseCase(service, time.Millisecond)

	first, err := gate.Check(context.Background(), domain.EntityGuide, "g-1", domain.ActionEdit)
	if err != nil || !first.Authorized {
		t.Fatalf("first check = (%+v, %v), want authorized", first, err)
	}

	gate.Consume(first.AuthorizationID)

	// The backend still reports the same approval, but it has been spent.
	second, err := gate.Check(context.Background(), domain.EntityGuide, "g-1", domain.ActionEdit)
	if err != nil {
		t.Fatalf("second check error = %v", err)
	}
	if second.Authorized {
		t.Fatal("a consumed approval must not authorize a second edit")
	}
}

func TestResetClearsConsumedApprovals(t *testing.T) {
	approved := domain.AuthorizationDecision{
		Authorized:      true,
		Status:          domain.AuthorizationApproved,
		AuthorizationID: "auth-9",
	}
	service := &authServiceFake{decisions: []domain.AuthorizationDecision{approved}}
	gate := NewAuthorizationGateUseCase(service, time.Millisecond)

	gate.Consume("auth-9")
	gate.Reset()

	decision, err := gate.Check(context.Background(), domain.EntityGuide, "g-1", domain.ActionEdit)
	if err != nil || !decision.Authorized {
		t.Fatalf("after reset check = (%+v, %v), want authorized", decision, err)
	}
}

func TestCheckFailsClosedOnBackendError(t *testing.T) {
	service := &authServiceFake{
		decisions: []domain.AuthorizationDecision{{}},
		errs:      []error{errors.New("gateway timeout")},
	}
	gate := NewAuthorizationGateUseCase(service, time.Millisecond)

	decision, err := gate.Check(context.Background(), domain.EntityGuide, "g-1", domain.ActionEdit)
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if decision.Authorized {
		t.Fatal("a failing gate must answer not-authorized")
	}
}

func TestAwaitDecisionPollsUntilTerminal(t *testing.T) {
	service := &authServiceFake{decisions: []domain.AuthorizationDecision{
		{Authorized: false, Status: domain.AuthorizationPending},
		{Authorized: false, Status: domain.AuthorizationPending},
		{Authorized: true, Status: domain.AuthorizationApproved, AuthorizationID: "auth-2"},
	}}
	gate := NewAuthorizationGateUseCase(service, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	decision, err := gate.AwaitDecision(ctx, domain.EntityGuide, "g-1", domain.ActionEdit)
	if err != nil {
		t.Fatalf("AwaitDecision() error = %v", err)
	}
	if !decision.Authorized || decision.Status != domain.AuthorizationApproved {
		t.Fatalf("decision = %+v, want approved", decision)
	}
	if service.calls < 3 {
		t.Fatalf("expected at least 3 polls, got %d", service.calls)
	}
}

func TestAwaitDecisionStopsOnRejection(t *testing.T) {
	service := &authServiceFake{decisions: []domain.AuthorizationDecision{
		{Authorized: false, Status: domain.AuthorizationPending},
		{Authorized: false, Status: domain.AuthorizationRejected},
	}}
	gate := NewAuthorizationGateUseCase(service, time.Millisecond)

	decision, err := gate.AwaitDecision(context.Background(), domain.EntityGuide, "g-1", domain.ActionEdit)
	if err != nil {
		t.Fatalf("AwaitDecision() error = %v", err)
	}
	if decision.Authorized || decision.Status != domain.AuthorizationRejected {
		t.Fatalf("decision = %+v, want terminal rejection", decision)
	}
}

func TestAwaitDecisionIsCancellable(t *testing.T) {
	service := &authServiceFake{decisions: []domain.AuthorizationDecision{
		{Authorized: false, Status: domain.AuthorizationPending},
	}}
	gate := NewAuthorizationGateUseCase(service, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(25 * time.Millisecond)
		cancel()
	}()

	decision, err := gate.AwaitDecision(ctx, domain.EntityGuide, "g-1", domain.ActionEdit)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if decision.Authorized {
		t.Fatal("a cancelled wait must answer not-authorized")
	}
}

func TestRequestValidatesInput(t *testing.T) {
	gate := NewAuthorizationGateUseCase(&authServiceFake{}, time.Millisecond)

	_, err := gate.Request(context.Background(), domain.AuthorizationRequestInput{EntityType: domain.EntityGuide})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequestForwardsToService(t *testing.T) {
	service := &authServiceFake{}
	gate := NewAuthorizationGateUseCase(service, time.Millisecond)

	request, err := gate.Request(context.Background(), domain.AuthorizationRequestInput{
		EntityType: domain.EntityGarmentDetail,
		EntityID:   "d-1",
		ActionType: domain.ActionEdit,
		Requester:  "op-7",
	})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if request.Status != domain.AuthorizationPending {
		t.Fatalf("Status = %s, want a fresh PENDING request", request.Status)
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/texcare/guide-tracker/internal/core/domain"
	"github.com/texcare/guide-tracker/internal/core/ports"
)

const defaultPollInterval = 2 * time.Second

// AuthorizationGateUseCase fronts the remote approval workflow. It tracks
// which approvals were already consumed so a single approval cannot cover
// two edits, and it polls on a cancellable timer while a decision is
// outstanding. Any backend error is answered as "not authorized": the gate
// fails closed, never open.
type AuthorizationGateUseCase struct {
	service      ports.AuthorizationService
	pollInterval time.Duration

	mu       sync.Mutex
	consumed map[string]struct{}
}

func NewAuthorizationGateUseCase(service ports.AuthorizationService, pollInterval time.Duration) *AuthorizationGateUseCase {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &AuthorizationGateUseCase{
		service:      service,
		pollInterval: pollInterval,
		consumed:     make(map[string]struct{}),
	}
}

func (g *AuthorizationGateUseCase) Check(ctx context.Context, entityType domain.EntityType, entityID string, action domain.ActionType) (domain.AuthorizationDecision, error) {
	decision, err := g.service.CheckAuthorization(ctx, entityType, entityID, action)
	if err != nil {
		return domain.AuthorizationDecision{Authorized: false}, fmt.Errorf("authorization check: %w", err)
	}
	if decision.Authorized && g.isConsumed(decision.AuthorizationID) {
		decision.Authorized = false
	}
	return decision, nil
}

func (g *AuthorizationGateUseCase) Request(ctx context.Context, input domain.AuthorizationRequestInput) (*domain.AuthorizationRequest, error) {
	if input.EntityID == "" || input.Requester == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "authorization request", errors.New("entity id and requester are required"))
	}
	request, err := g.service.CreateAuthorizationRequest(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create authorization request: %w", err)
	}
	return request, nil
}

// Consume marks an approval as spent. A later Check for the same (entity,
// action) answers false until a fresh approval arrives.
func (g *AuthorizationGateUseCase) Consume(authorizationID string) {
	if authorizationID == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.consumed[authorizationID] = struct{}{}
}

// Reset clears the consumed-approval set. Callers reset at the session
// boundary that owns the gate, not process-wide.
func (g *AuthorizationGateUseCase) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.consumed = make(map[string]struct{})
}

// AwaitDecision polls the backend at a fixed interval until the request
// reaches a terminal status or ctx is cancelled. Cancellation is the
// unsubscribe handle: once the owning screen or session is torn down no
// periodic work survives. A cancelled wait is "not authorized".
func (g *AuthorizationGateUseCase) AwaitDecision(ctx context.Context, entityType domain.EntityType, entityID string, action domain.ActionType) (domain.AuthorizationDecision, error) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		decision, err := g.Check(ctx, entityType, entityID, action)
		if err == nil && terminal(decision.Status) {
			return decision, nil
		}

		select {
		case <-ctx.Done():
			return domain.AuthorizationDecision{Authorized: false, Status: decision.Status}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (g *AuthorizationGateUseCase) isConsumed(authorizationID string) bool {
	if authorizationID == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.consumed[authorizationID]
	return ok
}

func terminal(status domain.AuthorizationStatus) bool {
	return status == domain.AuthorizationApproved || status == domain.AuthorizationRejected
}

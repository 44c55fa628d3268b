// Package httpadapter exposes the tracking engine to the branch UI. It is a
// thin binding layer: request decoding, outcome-to-status mapping and
// traffic control live here, every decision lives in the use cases.
package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/texcare/guide-tracker/internal/core/domain"
	"github.com/texcare/guide-tracker/internal/core/ports"
	"github.com/texcare/guide-tracker/internal/observability/metrics"
)

type Router struct {
	creator   ports.GuideCreator
	authority ports.TransitionAuthority
	intake    ports.ScanIntake
	gate      ports.AuthorizationGate
	journal   ports.DiscrepancyJournal

	service string
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	creator ports.GuideCreator,
	authority ports.TransitionAuthority,
	intake ports.ScanIntake,
	gate ports.AuthorizationGate,
	journal ports.DiscrepancyJournal,
	service string,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		creator:   creator,
		authority: authority,
		intake:    intake,
		gate:      gate,
		journal:   journal,
		service:   service,
		metrics:   serverMetrics,
	}
}

// TrafficPolicy bounds what the API accepts before handlers run.
type TrafficPolicy struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	AcquireTimeout time.Duration
}

func (rt *Router) Handler(policy TrafficPolicy) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/guides", rt.createGuide)
	mux.HandleFunc("/v1/guides/", rt.guideSubresource)
	mux.HandleFunc("/v1/reconcile", rt.reconcile)
	mux.HandleFunc("/v1/authorizations", rt.createAuthorization)
	mux.HandleFunc("/v1/authorizations/check", rt.checkAuthorization)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	acquireTimeout := policy.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = 100 * time.Millisecond
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, policy.MaxInFlight, acquireTimeout)
	handler = rateLimitMiddleware(handler, policy.RateLimitRPS, policy.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createGuideRequest struct {
	Guide  domain.GuideInput         `json:"guide"`
	Detail domain.GarmentDetailInput `json:"detail"`
	Scan   domain.ScanInput          `json:"scan"`
}

func (rt *Router) createGuide(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req createGuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Scan.ScanType == "" {
		req.Scan.ScanType = domain.ScanCollection
	}
	if req.Scan.ScannedQuantity == 0 {
		req.Scan.ScannedQuantity = len(req.Scan.ScannedCodes)
	}

	result, err := rt.creator.CreateGuideWithDetailAndScan(r.Context(), req.Guide, req.Detail, req.Scan)
	if err != nil {
		rt.writeSagaError(w, err, result)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordGuideCreation(rt.service, 0)
	}
	writeJSON(w, http.StatusCreated, result)
}

// writeSagaError renders a step failure with enough detail for manual
// remediation: which step failed, what already committed, and the guide
// number to look up when a half-created guide is left behind.
func (rt *Router) writeSagaError(w http.ResponseWriter, err error, result *domain.SagaResult) {
	var stepErr *domain.SagaStepError
	if !errors.As(err, &stepErr) {
		if rt.metrics != nil {
			rt.metrics.RecordGuideCreation(rt.service, domain.SagaStepGuide)
		}
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordGuideCreation(rt.service, stepErr.Step)
	}
	writeJSON(w, mapErrorToHTTPStatus(stepErr.Err), map[string]any{
		"error":           stepErr.Error(),
		"failed_step":     stepErr.Step,
		"completed_steps": stepErr.Completed,
		"guide_number":    stepErr.GuideNumber,
		"partial":         result,
	})
}

func (rt *Router) guideSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/guides/")
	switch {
	case strings.HasSuffix(rest, "/transitions"):
		rt.requestTransition(w, r, strings.TrimSuffix(rest, "/transitions"))
	case strings.HasSuffix(rest, "/discrepancies"):
		rt.listDiscrepancies(w, r, strings.TrimSuffix(rest, "/discrepancies"))
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
	}
}

type transitionRequest struct {
	ObservedStatus     domain.Stage           `json:"observed_status"`
	Target             domain.Stage           `json:"target"`
	ServiceType        domain.ServiceType     `json:"service_type"`
	Samples            []domain.TagScanSample `json:"samples"`
	Location           string                 `json:"location"`
	Operator           string                 `json:"operator"`
	BranchID           string                 `json:"branch_id"`
	Role               domain.ActorRole       `json:"role"`
	Action             domain.ActionType      `json:"action"`
	ConfirmDiscrepancy bool                   `json:"confirm_discrepancy"`
	DiscrepancyNote    string                 `json:"discrepancy_note"`
	AllowEmpty         bool                   `json:"allow_empty"`
}

func (rt *Router) requestTransition(w http.ResponseWriter, r *http.Request, guideID string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if guideID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "guide id is required"})
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Action == "" {
		req.Action = domain.ActionStageAdvance
	}

	scan, err := rt.intake.Intake(req.Samples, domain.StageContext{
		GuideID:     guideID,
		Stage:       req.Target,
		ServiceType: req.ServiceType,
		Location:    req.Location,
		Operator:    req.Operator,
		BranchID:    req.BranchID,
		AllowEmpty:  req.AllowEmpty,
	})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	outcome, err := rt.authority.RequestTransition(r.Context(), domain.TransitionRequest{
		Guide: &domain.Guide{
			ID:          guideID,
			Status:      req.ObservedStatus,
			ServiceType: req.ServiceType,
		},
		Target:             req.Target,
		Scan:               scan,
		Action:             req.Action,
		Actor:              req.Operator,
		Role:               req.Role,
		ConfirmDiscrepancy: req.ConfirmDiscrepancy,
		DiscrepancyNote:    req.DiscrepancyNote,
	})
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordTransition(rt.service, string(outcome.Status))
		if outcome.Applied() || outcome.Status == domain.TransitionConfirmationRequired {
			rt.metrics.RecordReconciliation(rt.service, len(outcome.Missing), len(outcome.Extra))
		}
	}
	writeJSON(w, transitionStatusCode(outcome.Status), outcome)
}

func transitionStatusCode(status domain.TransitionStatus) int {
	switch status {
	case domain.TransitionApplied, domain.TransitionAppliedWithDiscrepancy:
		return http.StatusOK
	case domain.TransitionConfirmationRequired, domain.TransitionRejectedInvalidEdge:
		return http.StatusConflict
	case domain.TransitionRejectedNeedsAuth:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (rt *Router) listDiscrepancies(w http.ResponseWriter, r *http.Request, guideID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if guideID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "guide id is required"})
		return
	}

	entries, err := rt.journal.ListByGuide(r.Context(), guideID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"discrepancies": entries})
}

type reconcileRequest struct {
	Expected []string `json:"expected"`
	Scanned  []string `json:"scanned"`
}

func (rt *Router) reconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result := domain.Reconcile(req.Expected, req.Scanned)
	if rt.metrics != nil {
		rt.metrics.RecordReconciliation(rt.service, len(result.Missing), len(result.Extra))
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) createAuthorization(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var input domain.AuthorizationRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	request, err := rt.gate.Request(r.Context(), input)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

func (rt *Router) checkAuthorization(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	q := r.URL.Query()
	entityType := domain.EntityType(q.Get("entity_type"))
	entityID := q.Get("entity_id")
	action := domain.ActionType(q.Get("action_type"))
	if entityType == "" || entityID == "" || action == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "entity_type, entity_id and action_type are required"})
		return
	}

	decision, err := rt.gate.Check(r.Context(), entityType, entityID, action)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAuthorizationCheck(rt.service, decision.Authorized)
	}
	writeJSON(w, http.StatusOK, decision)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

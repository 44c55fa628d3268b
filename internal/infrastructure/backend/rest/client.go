package rest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/texcare/guide-tracker/internal/core/domain"
	"github.com/texcare/guide-tracker/internal/infrastructure/resilience"
)

// Client talks to the laundry REST backend. The backend owns persistence and
// authentication; this adapter owns transport, error typing and the retry
// policy. Creation calls are never retried (a duplicate guide is worse than
// a reported failure); reads and status patches retry on transport faults.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	APIKey             string
	RequestTimeout     time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     options.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) CreateGuide(ctx context.Context, input domain.GuideInput) (*domain.Guide, error) {
	var guide domain.Guide
	err := c.call(ctx, "guide.create", classifyCreateError, func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/v1/guides", input, &guide, "create guide")
	})
	if err != nil {
		return nil, err
	}
	return &guide, nil
}

func (c *Client) GetGuide(ctx context.Context, id string) (*domain.Guide, error) {
	var guide domain.Guide
	err := c.call(ctx, "guide.get", classifyBackendError, func(ctx context.Context) error {
		return c.getJSON(ctx, "/api/v1/guides/"+url.PathEscape(id), &guide, "get guide")
	})
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &guide, nil
}

func (c *Client) PatchGuide(ctx context.Context, id string, patch domain.GuidePatch) (*domain.Guide, error) {
	var guide domain.Guide
	err := c.call(ctx, "guide.patch", classifyBackendError, func(ctx context.Context) error {
		return c.patchJSON(ctx, "/api/v1/guides/"+url.PathEscape(id), patch, &guide, "patch guide")
	})
	if err != nil {
		// A conditional status patch that misses its expected status comes
		// back as 409; surface it as an invalid transition so the authority
		// can reject instead of overwrite.
		if status, ok := httpStatus(err); ok && status == http.StatusConflict {
			return nil, domain.WrapError(domain.ErrInvalidTransition, "patch guide", err)
		}
		return nil, wrapNotFound(err)
	}
	return &guide, nil
}

func (c *Client) CreateGarmentDetail(ctx context.Context, input domain.GarmentDetailInput) (*domain.GuideGarmentDetail, error) {
	var detail domain.GuideGarmentDetail
	err := c.call(ctx, "detail.create", classifyCreateError, func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/v1/guide-garment-details", input, &detail, "create garment detail")
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) CreateScan(ctx context.Context, input domain.ScanInput) (*domain.RfidScanRecord, error) {
	var record domain.RfidScanRecord
	err := c.call(ctx, "scan.create", classifyCreateError, func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/v1/rfid-scans", input, &record, "create scan")
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) UpdateScan(ctx context.Context, id string, input domain.ScanInput) (*domain.RfidScanRecord, error) {
	var record domain.RfidScanRecord
	err := c.call(ctx, "scan.update", classifyBackendError, func(ctx context.Context) error {
		return c.patchJSON(ctx, "/api/v1/rfid-scans/"+url.PathEscape(id), input, &record, "update scan")
	})
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &record, nil
}

// LatestScan returns the most recent scan record for a guide, or nil when
// the guide has not been scanned yet.
func (c *Client) LatestScan(ctx context.Context, guideID string) (*domain.RfidScanRecord, error) {
	var record domain.RfidScanRecord
	err := c.call(ctx, "scan.latest", classifyBackendError, func(ctx context.Context) error {
		return c.getJSON(ctx, "/api/v1/guides/"+url.PathEscape(guideID)+"/rfid-scans/latest", &record, "latest scan")
	})
	if err != nil {
		if status, ok := httpStatus(err); ok && status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (c *Client) CheckAuthorization(ctx context.Context, entityType domain.EntityType, entityID string, action domain.ActionType) (domain.AuthorizationDecision, error) {
	query := url.Values{}
	query.Set("entity_type", string(entityType))
	query.Set("entity_id", entityID)
	query.Set("action_type", string(action))

	var decision domain.AuthorizationDecision
	err := c.call(ctx, "authorization.check", classifyBackendError, func(ctx context.Context) error {
		return c.getJSON(ctx, "/api/v1/authorizations/check?"+query.Encode(), &decision, "authorization check")
	})
	if err != nil {
		return domain.AuthorizationDecision{}, err
	}
	return decision, nil
}

func (c *Client) CreateAuthorizationRequest(ctx context.Context, input domain.AuthorizationRequestInput) (*domain.AuthorizationRequest, error) {
	var request domain.AuthorizationRequest
	err := c.call(ctx, "authorization.create", classifyCreateError, func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/v1/authorizations", input, &request, "create authorization request")
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (c *Client) call(ctx context.Context, operation string, classifier resilience.ErrorClassifier, fn func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, fn, classifier)
	} else {
		err = fn(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

func wrapNotFound(err error) error {
	if status, ok := httpStatus(err); ok && status == http.StatusNotFound {
		return domain.WrapError(domain.ErrGuideNotFound, "backend", err)
	}
	return err
}

func httpStatus(err error) (int, bool) {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}

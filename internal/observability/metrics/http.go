// Package metrics holds the prometheus registries for the API and the scan
// worker. Each binary owns its registry; nothing registers globally.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	transitionsTotal      *prometheus.CounterVec
	reconciliationsTotal  *prometheus.CounterVec
	discrepancySizes      *prometheus.HistogramVec
	guideCreationsTotal   *prometheus.CounterVec
	sagaStepFailures      *prometheus.CounterVec
	authorizationChecks   *prometheus.CounterVec
	authorizationPollsTot *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gt",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gt",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gt",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	transitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gt",
			Subsystem: "tracking",
			Name:      "transitions_total",
			Help:      "Total stage transition requests by outcome.",
		},
		[]string{"service", "outcome"},
	)
	reconciliationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gt",
			Subsystem: "tracking",
			Name:      "reconciliations_total",
			Help:      "Total tag-set reconciliations by result.",
		},
		[]string{"service", "result"},
	)
	discrepancySizes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gt",
			Subsystem: "tracking",
			Name:      "discrepancy_size",
			Help:      "Distribution of missing plus extra tags per imperfect reconciliation.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service"},
	)
	guideCreationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gt",
			Subsystem: "tracking",
			Name:      "guide_creations_total",
			Help:      "Total guide creation sagas by outcome.",
		},
		[]string{"service", "outcome"},
	)
	sagaStepFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gt",
			Subsystem: "tracking",
			Name:      "saga_step_failures_total",
			Help:      "Creation saga failures by failed step.",
		},
		[]string{"service", "step"},
	)
	authorizationChecks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gt",
			Subsystem: "authorization",
			Name:      "checks_total",
			Help:      "Total authorization gate checks by decision.",
		},
		[]string{"service", "decision"},
	)
	authorizationPollsTot := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gt",
			Subsystem: "authorization",
			Name:      "polls_total",
			Help:      "Total decision polls issued while awaiting approval.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		transitionsTotal,
		reconciliationsTotal,
		discrepancySizes,
		guideCreationsTotal,
		sagaStepFailures,
		authorizationChecks,
		authorizationPollsTot,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		transitionsTotal:      transitionsTotal,
		reconciliationsTotal:  reconciliationsTotal,
		discrepancySizes:      discrepancySizes,
		guideCreationsTotal:   guideCreationsTotal,
		sagaStepFailures:      sagaStepFailures,
		authorizationChecks:   authorizationChecks,
		authorizationPollsTot: authorizationPollsTot,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses per-guide routes so guide IDs never become label
// values.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/guides/") && strings.HasSuffix(path, "/transitions"):
		return "/v1/guides/{guide_id}/transitions"
	case strings.HasPrefix(path, "/v1/guides/") && strings.HasSuffix(path, "/discrepancies"):
		return "/v1/guides/{guide_id}/discrepancies"
	case strings.HasPrefix(path, "/v1/guides/"):
		return "/v1/guides/{guide_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordTransition(service, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.transitionsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordReconciliation(service string, missing, extra int) {
	result := "perfect"
	if missing > 0 || extra > 0 {
		result = "discrepancy"
		m.discrepancySizes.WithLabelValues(service).Observe(float64(missing + extra))
	}
	m.reconciliationsTotal.WithLabelValues(service, result).Inc()
}

func (m *HTTPServerMetrics) RecordGuideCreation(service string, failedStep int) {
	if failedStep <= 0 {
		m.guideCreationsTotal.WithLabelValues(service, "success").Inc()
		return
	}
	m.guideCreationsTotal.WithLabelValues(service, "failure").Inc()
	m.sagaStepFailures.WithLabelValues(service, strconv.Itoa(failedStep)).Inc()
}

func (m *HTTPServerMetrics) RecordAuthorizationCheck(service string, authorized bool) {
	decision := "denied"
	if authorized {
		decision = "granted"
	}
	m.authorizationChecks.WithLabelValues(service, decision).Inc()
}

func (m *HTTPServerMetrics) RecordAuthorizationPoll(service string) {
	m.authorizationPollsTot.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	samplesTotal  *prometheus.CounterVec
	bufferSize    prometheus.Gauge
	intakeTotal   *prometheus.CounterVec
	sampleLatency *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	samplesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gt",
			Subsystem: "worker",
			Name:      "tag_samples_total",
			Help:      "Total raw reader samples received.",
		},
		[]string{"service"},
	)
	bufferSize := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gt",
			Subsystem: "worker",
			Name:      "buffer_distinct_tags",
			Help:      "Distinct tags currently buffered by the intake pipeline.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	intakeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gt",
			Subsystem: "worker",
			Name:      "intake_total",
			Help:      "Total intake finalizations by status.",
		},
		[]string{"service", "status"},
	)
	sampleLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gt",
			Subsystem: "worker",
			Name:      "sample_lag_seconds",
			Help:      "Delay between the reader timestamp and intake receipt.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"service"},
	)

	registry.MustRegister(samplesTotal, bufferSize, intakeTotal, sampleLatency)

	return &WorkerMetrics{
		registry:      registry,
		samplesTotal:  samplesTotal,
		bufferSize:    bufferSize,
		intakeTotal:   intakeTotal,
		sampleLatency: sampleLatency,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) RecordSample(service string, readerTimestamp time.Time) {
	m.samplesTotal.WithLabelValues(service).Inc()
	if lag := time.Since(readerTimestamp); lag >= 0 {
		m.sampleLatency.WithLabelValues(service).Observe(lag.Seconds())
	}
}

func (m *WorkerMetrics) SetBufferSize(n int) {
	m.bufferSize.Set(float64(n))
}

func (m *WorkerMetrics) RecordIntake(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.intakeTotal.WithLabelValues(service, status).Inc()
}

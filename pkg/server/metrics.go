package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the single process-wide metric registry: created once at
// startup and injected into the router, with no other package-level
// mutable state. Uses promauto-backed counter/histogram vectors bound to a
// private *prometheus.Registry rather than the global DefaultRegisterer so
// repeated Metrics construction in tests never panics on duplicate
// registration.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	checkErrorsTotal *prometheus.CounterVec
	evalErrorsTotal  *prometheus.CounterVec
}

// NewMetrics builds a Metrics registry under the given namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route and status.",
		}, []string{"route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		checkErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_errors_total",
			Help:      "Data-quality checks that failed and were omitted from a result.",
		}, []string{"check_id"}),
		evalErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Requests that failed with an EvaluationError or UpstreamError.",
		}, []string{"kind"}),
	}
}

// Handler returns the Prometheus text-exposition handler for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	m.requestsTotal.WithLabelValues(route, status).Inc()
	m.requestDuration.WithLabelValues(route).Observe(seconds)
}

// ObserveCheckError records one skipped check.
func (m *Metrics) ObserveCheckError(checkID string) {
	m.checkErrorsTotal.WithLabelValues(checkID).Inc()
}

// ObserveEvaluationError records one failed evaluation, tagged by error kind.
func (m *Metrics) ObserveEvaluationError(kind string) {
	m.evalErrorsTotal.WithLabelValues(kind).Inc()
}

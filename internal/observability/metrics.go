package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus collectors for the HTTP surface and auth activity.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration     *prometheus.HistogramVec
	TotalRequests       *prometheus.CounterVec
	ErrorTotal          *prometheus.CounterVec
	AuthEvents          *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec
}

// NewMetrics registers collectors on reg. A nil registry gets a private one.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auth_http_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),

		TotalRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_http_requests_total",
			Help: "Total number of processed requests.",
		}, []string{"route", "method", "status"}),

		ErrorTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_http_errors_total",
			Help: "Total number of error responses by code.",
		}, []string{"route", "method", "code"}),

		AuthEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Audit events emitted by type.",
		}, []string{"type"}),

		// 0 closed, 1 half-open, 2 open
		CircuitBreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "auth_circuit_breaker_state",
			Help: "Current state of a circuit breaker.",
		}, []string{"name"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.TotalRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.ErrorTotal.WithLabelValues(route, method, code).Inc()
}

// RecordAuthEvent counts an audit event.
func (m *Metrics) RecordAuthEvent(eventType string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(eventType).Inc()
}

// SetBreakerState publishes a breaker state code.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

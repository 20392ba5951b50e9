// Package metrics exports Prometheus metrics for the resilience layer:
// breaker states, guarded call outcomes, component health and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Garrettc123/ueep-ha-system/internal/breaker"
)

const namespace = "ueep"

// Label names shared across the collectors.
const (
	DependencyLabel = "dependency"
	OutcomeLabel    = "outcome"
	ComponentLabel  = "component"
)

// Metrics owns a private Prometheus registry so tests never fight over the
// default one.
type Metrics struct {
	registry *prometheus.Registry

	breakerState *prometheus.GaugeVec
	guardedCalls *prometheus.CounterVec
	healthStatus *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 = closed, 1 = open, 2 = half-open)",
		}, []string{DependencyLabel}),
		guardedCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guarded_calls_total",
			Help:      "Guarded dependency calls by outcome",
		}, []string{DependencyLabel, OutcomeLabel}),
		healthStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_status",
			Help:      "Health status (1 = healthy, 0 = unhealthy)",
		}, []string{ComponentLabel}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	registry.MustRegister(
		m.breakerState,
		m.guardedCalls,
		m.healthStatus,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Handler serves the Prometheus exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetBreakerState records the current state of a dependency's breaker as an
// ordinal gauge.
func (m *Metrics) SetBreakerState(dependency string, state breaker.State) {
	m.breakerState.WithLabelValues(dependency).Set(float64(state))
}

// ObserveGuardedCall counts one guarded call with its outcome tag.
func (m *Metrics) ObserveGuardedCall(dependency string, outcome breaker.Outcome) {
	m.guardedCalls.WithLabelValues(dependency, outcome.String()).Inc()
}

// SetHealth records a component's health verdict.
func (m *Metrics) SetHealth(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.healthStatus.WithLabelValues(component).Set(value)
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

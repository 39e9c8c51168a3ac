package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the API.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	SessionBinds       *prometheus.CounterVec
	ConnectionDiscards *prometheus.CounterVec

	PermissionChecks *prometheus.CounterVec
	LoginAttempts    *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_received_total",
				Help: "Total number of HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SessionBinds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_session_binds_total",
				Help: "Session context bind attempts by result",
			},
			[]string{"result"},
		),
		ConnectionDiscards: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_connection_discards_total",
				Help: "Connections closed instead of returned to the pool, by reason",
			},
			[]string{"reason"},
		),
		PermissionChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authz_permission_checks_total",
				Help: "Permission evaluations by permission and outcome",
			},
			[]string{"permission", "granted"},
		),
		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_attempts_total",
				Help: "Local login attempts by result",
			},
			[]string{"result"},
		),
	}
}

// NewRegistry creates a fresh registry with process and Go collectors plus
// the API metrics.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, NewMetrics(reg)
}

// Handler returns the exposition handler for reg.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveHTTP records one completed request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveBind records a session bind outcome ("ok" or "error").
func (m *Metrics) ObserveBind(result string) {
	if m == nil {
		return
	}
	m.SessionBinds.WithLabelValues(result).Inc()
}

// ObserveDiscard records a connection discarded for reason.
func (m *Metrics) ObserveDiscard(reason string) {
	if m == nil {
		return
	}
	m.ConnectionDiscards.WithLabelValues(reason).Inc()
}

// ObservePermission records a permission evaluation.
func (m *Metrics) ObservePermission(permission string, granted bool) {
	if m == nil {
		return
	}
	m.PermissionChecks.WithLabelValues(permission, strconv.FormatBool(granted)).Inc()
}

// ObserveLogin records a login attempt result.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

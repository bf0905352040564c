package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the portal
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Backend API Metrics
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec

	// State container Metrics
	StoreOutcomesTotal *prometheus.CounterVec
	BidCountFallbacks  prometheus.Counter
	ActiveStores       prometheus.Gauge

	// Session Metrics
	SessionLookupsTotal *prometheus.CounterVec
	SessionsSwept       prometheus.Counter
}

// NewMetricsRegistry registers all metrics with reg. A nil reg uses the default registerer.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MetricsRegistry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portal_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		BackendRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_backend_requests_total",
				Help: "Calls made to the TaskBounty API by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		BackendRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_backend_request_duration_seconds",
				Help:    "TaskBounty API call latency in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),

		StoreOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_store_outcomes_total",
				Help: "State container operation outcomes",
			},
			[]string{"container", "operation", "outcome"},
		),
		BidCountFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_bid_count_fallbacks_total",
				Help: "Bid count fetches that failed and were shown as zero bids",
			},
		),
		ActiveStores: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_active_stores",
				Help: "Per-session state stores currently held in memory",
			},
		),

		SessionLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_session_lookups_total",
				Help: "Session store lookups by result",
			},
			[]string{"result"},
		),
		SessionsSwept: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_sessions_swept_total",
				Help: "Expired sessions removed by the sweeper",
			},
		),
	}
}

// ObserveBackendCall records one TaskBounty API call. Safe on a nil registry.
func (m *MetricsRegistry) ObserveBackendCall(endpoint, method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	endpoint = NormalizeEndpoint(endpoint)
	m.BackendRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.BackendRequestDuration.WithLabelValues(endpoint, method).Observe(took.Seconds())
}

// ObserveOutcome records a state container outcome. Safe on a nil registry.
func (m *MetricsRegistry) ObserveOutcome(container, operation, outcome string) {
	if m == nil {
		return
	}
	m.StoreOutcomesTotal.WithLabelValues(container, operation, outcome).Inc()
}

// BidCountFallback counts a bid-count fetch shown as zero bids. Safe on a nil registry.
func (m *MetricsRegistry) BidCountFallback() {
	if m == nil {
		return
	}
	m.BidCountFallbacks.Inc()
}

// SessionLookup records a session store lookup result. Safe on a nil registry.
func (m *MetricsRegistry) SessionLookup(result string) {
	if m == nil {
		return
	}
	m.SessionLookupsTotal.WithLabelValues(result).Inc()
}

// NormalizeEndpoint normalizes an endpoint path for metrics
// Removes IDs to avoid metric cardinality explosion
func NormalizeEndpoint(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if isIDLike(part) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

// isIDLike checks if a string looks like an ID (numeric, UUID or 24-hex document id)
func isIDLike(s string) bool {
	if s == "" {
		return false
	}
	if len(s) == 36 && strings.Count(s, "-") == 4 {
		return true
	}
	if len(s) == 24 && isHex(s) {
		return true
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

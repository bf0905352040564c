package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/metrics"
)

// MetricsMiddleware records HTTP metrics for each request and logs its completion.
func MetricsMiddleware(metricsReg *metrics.MetricsRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			// The pattern is only complete once chi has routed the request.
			routePattern := "unknown"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				routePattern = rc.RoutePattern()
			}

			duration := time.Since(start)
			if metricsReg != nil {
				metricsReg.HTTPRequestsTotal.WithLabelValues(
					routePattern,
					r.Method,
					strconv.Itoa(wrapped.statusCode),
				).Inc()
				metricsReg.HTTPRequestDuration.WithLabelValues(routePattern, r.Method).Observe(duration.Seconds())
			}

			logging.Info("HTTP request completed",
				"request_id", RequestID(r.Context()),
				"method", r.Method,
				"endpoint", routePattern,
				"status_code", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
			)
		})
	}
}

// InFlightMiddleware tracks requests in flight per path prefix. It runs
// before routing so it labels by the first path segment.
func InFlightMiddleware(metricsReg *metrics.MetricsRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metricsReg == nil {
				next.ServeHTTP(w, r)
				return
			}
			label := metrics.NormalizeEndpoint(firstSegment(r.URL.Path))
			metricsReg.HTTPRequestsInFlight.WithLabelValues(label).Inc()
			defer metricsReg.HTTPRequestsInFlight.WithLabelValues(label).Dec()
			next.ServeHTTP(w, r)
		})
	}
}

func firstSegment(path string) string {
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return path
}

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
		r.ResponseWriter.WriteHeader(code)
	}
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.statusCode = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

package api

import (
	"context"
	"net/http"
	"time"

	"taskbounty/portal/internal/common"
)

type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

type HealthCheckResponse struct {
	Status   string                   `json:"status"`
	Uptime   string                   `json:"uptime"`
	Services map[string]ServiceStatus `json:"services"`
}

type pinger func(ctx context.Context) error

// HealthCheckHandler handles GET /healthCheck. It pings the session backend
// that is in use.
func HealthCheckHandler(deps *Dependencies, upSince time.Time) http.HandlerFunc {
	checks := map[string]pinger{}
	if deps.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() }
	}
	if deps.SQL != nil {
		checks["sql"] = deps.SQL.PingContext
	}
	return healthCheck(checks, upSince)
}

func healthCheck(checks map[string]pinger, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := HealthCheckResponse{
			Status:   "ok",
			Uptime:   time.Since(upSince).Round(time.Second).String(),
			Services: make(map[string]ServiceStatus, len(checks)),
		}
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				resp.Services[name] = ServiceStatus{Status: "down", Details: err.Error()}
				resp.Status = "down"
				continue
			}
			resp.Services[name] = ServiceStatus{Status: "ok"}
		}

		code := http.StatusOK
		if resp.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		common.RespondSuccess(w, initTime, "health", resp, code)
	}
}

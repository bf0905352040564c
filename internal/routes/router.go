package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"taskbounty/portal/internal/api"
	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/middleware"
	"taskbounty/portal/portal/ui"
)

// RegisterRoutes builds the portal router on top of deps.
func RegisterRoutes(deps *api.Dependencies, upSince time.Time) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.InFlightMiddleware(deps.Metrics))
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.Get("/healthCheck", api.HealthCheckHandler(deps, upSince))

	cookie := middleware.SessionOptions{
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.CookieSecure,
		TTL:        cfg.Session.TTL,
	}
	screens := ui.NewHandler(ui.Options{
		Sessions: deps.Sessions,
		Registry: deps.Registry,
		Checkout: deps.Checkout,
		Cookie:   cookie,
		PageSize: cfg.App.TasksPerPage,
	})
	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)

	r.Group(func(sessioned chi.Router) {
		sessioned.Use(middleware.SessionMiddleware(deps.Sessions, deps.Registry, cookie))

		sessioned.Get("/api/session", api.SessionInfoHandler)

		// the payment widget posts its result back from the provider's frame
		sessioned.Route("/checkout", func(checkout chi.Router) {
			checkout.Use(cors.Handler(cors.Options{
				AllowedOrigins:   cfg.HTTP.CORSOrigins,
				AllowedMethods:   []string{"POST", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
			checkout.Use(middleware.RequireAuth)
			RegisterCheckoutRoutes(checkout, screens)
		})

		RegisterUIRoutes(sessioned, screens, limiter)
	})

	logging.Info("Router initialized", "session_store", cfg.Session.Store)
	return r
}

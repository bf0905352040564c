package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskbounty/portal/internal/api"
	"taskbounty/portal/internal/config"
	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/routes"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.App.Env); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("TaskBounty portal starting up",
		"environment", cfg.App.Env,
		"backend", cfg.Backend.BaseURL,
		"session_store", cfg.Session.Store,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsReg := metrics.NewMetricsRegistry(nil)

	deps, err := api.InitDependencies(ctx, cfg, metricsReg)
	if err != nil {
		logging.Fatal("Failed to initialize dependencies", "error", err)
	}
	defer deps.Close()

	upSince := time.Now()
	router := routes.RegisterRoutes(deps, upSince)

	// Metrics endpoint sits outside the Chi router
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err)
	}
}

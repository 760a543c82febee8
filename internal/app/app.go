// Package app assembles the service: configuration, logger, store, services,
// router and the HTTP server lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rfqpulse/internal/analytics"
	"rfqpulse/internal/config"
	"rfqpulse/internal/infrastructure"
	"rfqpulse/internal/middleware"
	"rfqpulse/internal/services"
	"rfqpulse/internal/store"
	httptransport "rfqpulse/internal/transport/http"
)

// App is the assembled application.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	server *http.Server
}

// New builds the application from configuration. The store is opened (and
// migrated) here so a bad database path fails at startup, not on the first
// request.
func New(cfg *config.Config) (*App, error) {
	logger, err := infrastructure.NewLogger(cfg.Logging, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	slog.SetDefault(logger)

	if dir := filepath.Dir(cfg.Storage.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	st, err := store.Open(cfg.Storage.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	estCfg := analytics.DefaultEstimatorConfig()
	estCfg.HighThreshold = cfg.Analytics.EstimateHighThreshold
	estCfg.MediumThreshold = cfg.Analytics.EstimateMediumThreshold
	estCfg.CandidateFloor = cfg.Analytics.EstimateCandidateFloor
	estCfg.SizeBonus = cfg.Analytics.EstimateSizeBonus

	rfqService := services.NewRFQService(st, cfg.Storage.UploadDir, cfg.Storage.MaxUploadMB, logger)
	analysisService := services.NewAnalysisService(st, estCfg, logger)
	healthService := services.NewHealthService(st, logger)

	router := buildRouter(cfg, logger,
		httptransport.NewRFQHandler(rfqService, cfg.Storage.MaxUploadMB, logger),
		httptransport.NewAnalysisHandler(analysisService, logger),
		httptransport.NewHealthHandler(healthService, logger))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{cfg: cfg, logger: logger, store: st, server: server}, nil
}

func buildRouter(cfg *config.Config, logger *slog.Logger,
	rfqHandler *httptransport.RFQHandler,
	analysisHandler *httptransport.AnalysisHandler,
	healthHandler *httptransport.HealthHandler) chi.Router {

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Compress(5))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.Security.AllowedOrigins,
	}))

	rateLimiter := middleware.NewRateLimiter(
		cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimiter.Handler)
		rfqHandler.RegisterRoutes(r)
		analysisHandler.RegisterRoutes(r)
		healthHandler.RegisterRoutes(r)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then drains in-flight requests within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			slog.String("addr", a.server.Addr),
			slog.String("database", a.cfg.Storage.DatabasePath))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.store.Close()
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.logger.Info("server shutting down")
	err := a.server.Shutdown(shutdownCtx)
	if closeErr := a.store.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Router exposes the assembled router, mainly for tests.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Shutdown stops the server directly. Run's context cancellation is the
// normal path; this exists for tests.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.server.Shutdown(ctx)
	if closeErr := a.store.Close(); err == nil {
		err = closeErr
	}
	return err
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/Calebe94/usgs-earthquake/internal/adapter/http"
	"github.com/Calebe94/usgs-earthquake/internal/adapter/postgres"
	"github.com/Calebe94/usgs-earthquake/internal/adapter/usgs"
	"github.com/Calebe94/usgs-earthquake/internal/cache"
	"github.com/Calebe94/usgs-earthquake/internal/config"
	"github.com/Calebe94/usgs-earthquake/internal/jobs"
	"github.com/Calebe94/usgs-earthquake/internal/observability"
	"github.com/Calebe94/usgs-earthquake/internal/registry"
	"github.com/Calebe94/usgs-earthquake/internal/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Storage is feature-flagged on DATABASE_URL: Postgres in production,
	// in-memory for local development.
	var (
		entryStore cache.EntryStore
		cities     registry.Registry
		ready      httpadapter.ReadinessChecker
		db         *postgres.DB
	)
	if cfg.DatabaseURL != "" {
		db, err = postgres.Open(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		schemaCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.EnsureSchema(schemaCtx)
		cancel()
		if err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		entryStore = db.Entries()
		cities = db.Cities()
		ready = httpadapter.ReadinessFunc(db.Ping)
		logger.Info("postgres store enabled")
	} else {
		entryStore = cache.NewMemoryStore()
		cities = registry.NewMemory()
		ready = httpadapter.ReadinessFunc(func(context.Context) error { return nil })
		logger.Warn("DATABASE_URL not set, using in-memory store; state is lost on restart")
	}

	rangeCache := cache.New(
		cache.NewReadThrough(entryStore, cfg.EntryCacheSize, metrics),
		logger, metrics,
	)
	source := usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, logger, metrics)
	orchestrator := search.New(cities, rangeCache, source, nil, cfg.MinMagnitude, logger, metrics)
	runner := jobs.NewRunner(cfg.JobWorkers, cfg.JobQueueSize, cfg.JobRetention, nil, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, orchestrator, runner, cities, ready, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner.Start(ctx)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	runner.Wait()
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("postgres close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

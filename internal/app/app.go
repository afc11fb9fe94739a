// Package app initializes and holds the long-lived services shared by the
// CLI commands, acting as the dependency injection container. Everything is
// constructed once at startup and passed by reference; there are no ambient
// mutable singletons besides the shared logger handle.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"gradientharvest/internal/api"
	"gradientharvest/internal/config"
	"gradientharvest/internal/logging"
	"gradientharvest/internal/metrics"
	"gradientharvest/internal/progress"
	"gradientharvest/internal/ratelimit"
	"gradientharvest/internal/store"
)

// App holds the shared services for one process run.
type App struct {
	Cfg      config.Config
	Logger   *zap.Logger
	Store    *store.Store
	Client   *api.Client
	Tracker  *progress.Tracker
	Registry *prometheus.Registry
	RunID    string

	metricsSrv *metrics.Server
}

// New builds the container from configuration. It fails fast when any
// critical service cannot be initialized.
func New(cfg config.Config) (*App, error) {
	if err := logging.Init(cfg.Logging.Development); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	runID := uuid.NewString()
	logger := logging.L.With(zap.String("run_id", runID))

	st, err := store.Open(cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	limiter := ratelimit.New(cfg.Crawler.MinInterval)
	client, err := api.NewClient(api.Config{
		BaseURL:     cfg.API.BaseURL,
		Token:       cfg.API.Token,
		Timeout:     cfg.API.Timeout,
		CourseLimit: cfg.Crawler.CourseLimit,
	}, limiter, logger)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	registry := prometheus.NewRegistry()
	promSink, err := progress.NewPrometheusSink(registry)
	if err != nil {
		return nil, fmt.Errorf("init progress metrics: %w", err)
	}
	tracker := progress.NewTracker(progress.NewLogSink(logger), promSink)

	a := &App{
		Cfg:      cfg,
		Logger:   logger,
		Store:    st,
		Client:   client,
		Tracker:  tracker,
		Registry: registry,
		RunID:    runID,
	}

	if cfg.Metrics.Enabled {
		a.metricsSrv = metrics.NewServer(cfg.Metrics.Port, registry, logger)
		a.metricsSrv.Start()
	}

	return a, nil
}

// Close releases every held resource; safe to call once at process exit.
func (a *App) Close() {
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsSrv.Shutdown(ctx); err != nil {
			a.Logger.Warn("metrics shutdown failed", zap.Error(err))
		}
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("store close failed", zap.Error(err))
	}
	_ = a.Logger.Sync()
}

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sweetpotato0/krishimitra/advisory"
	"github.com/sweetpotato0/krishimitra/config"
	"github.com/sweetpotato0/krishimitra/pkg/logging"
	"github.com/sweetpotato0/krishimitra/pkg/metrics"
	"github.com/sweetpotato0/krishimitra/pkg/telemetry"
	"github.com/sweetpotato0/krishimitra/resources"
)

// app holds the process-wide dependencies shared by every subcommand.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	resources *resources.Cache
	advisor   *advisory.Advisor

	shutdownTelemetry func(context.Context) error
}

// newApp loads configuration and wires the advisor.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.Logger()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "krishimitra",
		ServiceVersion: version,
		Environment:    cfg.App.Env,
		Disable:        !cfg.App.Tracing.Enabled,
		Exporter:       cfg.App.Tracing.Exporter,
		Endpoint:       cfg.App.Tracing.Endpoint,
		Logger:         logging.WithComponent("telemetry"),
	})
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	cache := resources.New(cfg, resources.WithMetrics(m))
	return &app{
		cfg:               cfg,
		logger:            logger,
		metrics:           m,
		resources:         cache,
		advisor:           advisory.New(cache, advisory.WithMetrics(m)),
		shutdownTelemetry: shutdown,
	}, nil
}

// close releases the cached resources and flushes pending spans.
func (a *app) close(ctx context.Context) {
	if err := a.resources.Close(); err != nil {
		a.logger.Warn("close resources failed", "error", err)
	}
	if err := a.shutdownTelemetry(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn("telemetry shutdown failed", "error", err)
	}
}

// quietLogging keeps stdout clean for commands whose output is the product.
func quietLogging() {
	logging.SetLogger(logging.New(os.Stderr, os.Getenv("KRISHIMITRA_LOG_FORMAT"), "error"))
}

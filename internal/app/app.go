// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pricewatch/pricewatch/internal/config"
	"github.com/pricewatch/pricewatch/internal/metrics"
	"github.com/pricewatch/pricewatch/internal/orchestrate"
	"github.com/pricewatch/pricewatch/internal/ratelimit"
	"github.com/pricewatch/pricewatch/internal/renderer"
	"github.com/pricewatch/pricewatch/internal/storage"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config       *config.Config
	Logger       *zerolog.Logger
	Store        *storage.Store
	Metrics      *metrics.Metrics
	RateLimiter  ratelimit.RateLimiter
	Renderer     *renderer.Chrome
	Orchestrator *orchestrate.Orchestrator
	startTime    time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Connects to Postgres and ensures the schema
//   - Creates the per-host rate limiter
//   - Creates the Chrome renderer and the scrape orchestrator
//
// If any step fails, an error is returned and no resources are left open.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logLevel := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var logWriter io.Writer
	if cfg.JSONLog {
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.NewConsoleWriter()
	}
	logger := log.Output(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	store, err := storage.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	limiter := ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	m := metrics.New()

	chrome := renderer.New(renderer.Options{
		NavigationTimeout: cfg.NavigationTimeout,
		SelectorTimeout:   cfg.SelectorTimeout,
		SettleDelay:       cfg.SettleDelay,
		Headless:          cfg.BrowserHeadless,
		UserAgent:         cfg.UserAgent,
		Proxy:             cfg.Proxy,
		ChromePath:        cfg.ChromePath,
	})

	orch := orchestrate.New(store, store, chrome, limiter, m, cfg.ScrapeConcurrency)

	app := &Application{
		Config:       cfg,
		Logger:       &logger,
		Store:        store,
		Metrics:      m,
		RateLimiter:  limiter,
		Renderer:     chrome,
		Orchestrator: orch,
		startTime:    time.Now(),
	}

	logger.Info().Msg("Application initialized successfully")
	return app, nil
}

// Close gracefully shuts down the application and all its resources.
// Any errors during shutdown are logged but do not prevent other steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Info().Msg("Shutting down application")

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing database")
		}
	}

	uptime := time.Since(a.startTime)
	a.Logger.Info().Dur("uptime", uptime).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}

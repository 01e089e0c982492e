// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/reddit-content-fetcher/internal/config"
	"github.com/JakeFAU/reddit-content-fetcher/internal/logging"
	"github.com/JakeFAU/reddit-content-fetcher/internal/reddit"
	"github.com/JakeFAU/reddit-content-fetcher/internal/source"
)

// App holds the shared, long-lived services: configuration, the logger and
// the content source. It is built once per process and closed on exit.
type App struct {
	Config config.Config
	Logger *zap.Logger
	Source reddit.ContentSource
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.Config
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.Logger
}

// GetSource returns the configured, instrumented content source.
func (a *App) GetSource() reddit.ContentSource {
	return a.Source
}

// NewApp loads configuration from cfgPath (and REDDIT_* environment variables)
// and builds the logger and content source. It fails fast on invalid settings.
func NewApp(_ context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return NewWithConfig(cfg, logger)
}

// NewWithConfig builds an App from an already validated configuration.
func NewWithConfig(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("initializing application services", zap.String("source", cfg.Source.Kind))

	src, err := source.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init content source: %w", err)
	}
	return &App{
		Config: cfg,
		Logger: logger,
		Source: src,
	}, nil
}

// Close releases the content source and flushes the logger.
func (a *App) Close() {
	a.GetLogger().Info("shutting down application services")
	if c, ok := a.Source.(interface{ Close() }); ok {
		c.Close()
	}
	// Sync on stderr/stdout returns EINVAL on some platforms.
	_ = a.GetLogger().Sync()
}

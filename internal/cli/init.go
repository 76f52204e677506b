// Package cli provides common process bootstrap for cmd/budgethub and
// cmd/budgethub-worker.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgethub/internal/backend"
	"budgethub/internal/config"
	"budgethub/internal/log"
	"budgethub/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the configured level and installs
// it as the slog default.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	level, _ := cfg.SlogLevel()
	logger := log.New(log.Config{Level: level, Component: component, Output: out})
	log.SetDefault(logger)
	return logger
}

// LoadConfig loads and validates configuration.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is a fully wired process.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Backend   *backend.Backend
	Sync      *services.SyncService
	Documents *services.DocumentService
}

// NewApp wires backends and services from configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	b, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	return &App{
		Config:  cfg,
		Logger:  logger,
		Backend: b,
		Sync: services.NewSyncService(b.Documents, b.Gateway, b.Runs, services.SyncConfig{
			DefaultSpreadsheetID: cfg.GoogleSpreadsheetID,
			SheetTitle:           cfg.GoogleSheetTitle,
		}, logger.Logger),
		Documents: services.NewDocumentService(b.Documents),
	}, nil
}

// Close releases backend resources.
func (a *App) Close() error {
	if a.Backend == nil || a.Backend.Cleanup == nil {
		return nil
	}
	return a.Backend.Cleanup()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgethub/internal/cache"
	"budgethub/internal/log"
	"budgethub/internal/sheets/google"
	"budgethub/internal/sheets/memory"
	"budgethub/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger.With(log.FieldComponent, log.ComponentBackend)}
}

// CreateBackend builds the gateway and the document store. On failure every
// resource opened so far is released.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (_ *Backend, err error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{Caches: cache.NewManager(f.logger)}
	var closers []func() error
	b.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			_ = b.Cleanup()
		}
	}()

	var creds google.Credentials
	if config.UsesGoogle() {
		if creds, err = google.LoadCredentials(config.Credentials); err != nil {
			return nil, fmt.Errorf("load google credentials: %w", err)
		}
	}

	switch config.Sheets {
	case GoogleSheets:
		svc, err := google.NewSheetsService(ctx, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		client := google.NewClient(svc, google.WithLogger(f.logger))
		b.Caches.Register(client.TargetCache())
		b.Gateway = client
	case MemorySheets:
		b.Gateway = memory.NewSheet()
	}
	f.logger.Info("Initialized sheets backend", "type", config.Sheets)

	switch config.Documents {
	case SQLiteDocuments:
		repo, err := f.openSQLite(config.SQLiteDBPath)
		if err != nil {
			return nil, err
		}
		closers = append(closers, repo.Close)
		b.Documents, b.Runs = repo, repo

	case DriveDocuments:
		svc, err := google.NewDriveService(ctx, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Drive client: %w", err)
		}
		b.Documents = google.NewDriveStore(svc)
		// History stays local when a database path is configured.
		if config.SQLiteDBPath != "" {
			repo, err := f.openSQLite(config.SQLiteDBPath)
			if err != nil {
				return nil, err
			}
			closers = append(closers, repo.Close)
			b.Runs = repo
		}

	case MemoryDocuments:
		store := memory.NewStore()
		if config.DataDirectory != "" {
			if store, err = memory.NewStoreFromDir(config.DataDirectory); err != nil {
				return nil, fmt.Errorf("seed memory store: %w", err)
			}
		}
		b.Documents, b.Runs = store, store
	}
	f.logger.Info("Initialized document backend",
		"type", config.Documents,
		"data_directory", config.DataDirectory,
		"history", b.Runs != nil)

	return b, nil
}

func (f *DefaultFactory) openSQLite(path string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Opened SQLite database", "db_path", path)
	return repo, nil
}

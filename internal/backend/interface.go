// Package backend assembles the spreadsheet gateway and document store
// selected by configuration.
package backend

import (
	"context"

	"budgethub/internal/cache"
	"budgethub/internal/sheets"
	"budgethub/internal/sheets/google"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Backend holds the adapters a sync service is built from.
type Backend struct {
	Gateway   sheets.Gateway
	Documents sheets.DocumentStore
	// Runs is nil when no history store is available.
	Runs sheets.RunRecorder
	// Caches holds the adapter caches for periodic sweeping.
	Caches  *cache.Manager
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

// Config holds configuration for backend creation
type Config struct {
	Sheets    SheetsType
	Documents DocumentType

	SQLiteDBPath string
	Credentials  google.CredentialSource

	// DataDirectory seeds the memory document store.
	DataDirectory string
}

// SheetsType selects the spreadsheet gateway.
type SheetsType string

const (
	GoogleSheets SheetsType = "google"
	MemorySheets SheetsType = "memory"
)

func (t SheetsType) String() string { return string(t) }

func (t SheetsType) IsValid() bool {
	switch t {
	case GoogleSheets, MemorySheets:
		return true
	default:
		return false
	}
}

// DocumentType selects where budget documents live.
type DocumentType string

const (
	SQLiteDocuments DocumentType = "sqlite"
	DriveDocuments  DocumentType = "drive"
	MemoryDocuments DocumentType = "memory"
)

func (t DocumentType) String() string { return string(t) }

func (t DocumentType) IsValid() bool {
	switch t {
	case SQLiteDocuments, DriveDocuments, MemoryDocuments:
		return true
	default:
		return false
	}
}

func (t DocumentType) usesGoogle() bool { return t == DriveDocuments }

func (t SheetsType) usesGoogle() bool { return t == GoogleSheets }

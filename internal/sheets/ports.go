package sheets

import (
	"context"
	"errors"
	"time"

	"budgethub/internal/core"

	gsheet "google.golang.org/api/sheets/v4"
)

// ErrBudgetNotFound is returned by a DocumentStore for unknown ids.
var ErrBudgetNotFound = errors.New("budget not found")

// Sync directions.
const (
	DirectionPush = "push"
	DirectionPull = "pull"
)

// SyncRun records one push or pull.
type SyncRun struct {
	ID          int64     `json:"id"`
	BudgetID    string    `json:"budgetId"`
	Direction   string    `json:"direction"`
	Strategy    string    `json:"strategy,omitempty"`
	ChangeCount int       `json:"changeCount"`
	Summary     string    `json:"summary"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Target identifies the tab a budget is written to and read from.
type Target struct {
	SpreadsheetID string
	SheetID       int64
	Title         string
}

// Ports for outbound adapters.
type (
	// SheetResolver performs the info fetch that precedes every push and pull.
	SheetResolver interface {
		// Resolve returns the tab with the given title, creating it when missing.
		Resolve(ctx context.Context, spreadsheetID, title string) (Target, error)
	}

	GridWriter interface {
		Clear(ctx context.Context, t Target) error
		// WriteValues writes ranges with formulas interpreted, not as literal text.
		WriteValues(ctx context.Context, t Target, ranges []*gsheet.ValueRange) error
		ApplyFormatting(ctx context.Context, t Target, requests []*gsheet.Request) error
	}

	GridReader interface {
		// ReadValues returns unformatted cell values, one slice per row.
		ReadValues(ctx context.Context, t Target) ([][]any, error)
		// ReadRowColors returns the label-cell background of each 1-based row
		// as #rrggbb. Rows without a background are omitted.
		ReadRowColors(ctx context.Context, t Target) (map[int]string, error)
	}

	// Gateway is everything a push/pull needs from a spreadsheet backend.
	Gateway interface {
		SheetResolver
		GridWriter
		GridReader
	}

	// DocumentStore persists budget documents.
	DocumentStore interface {
		LoadBudget(ctx context.Context, id string) (core.Budget, error)
		SaveBudget(ctx context.Context, b core.Budget) error
		ListBudgets(ctx context.Context) ([]core.Budget, error)
	}

	// RunRecorder keeps the sync history.
	RunRecorder interface {
		RecordSyncRun(ctx context.Context, run SyncRun) (SyncRun, error)
		// ListSyncRuns returns the most recent runs first; limit <= 0 means all.
		ListSyncRuns(ctx context.Context, budgetID string, limit int) ([]SyncRun, error)
	}
)

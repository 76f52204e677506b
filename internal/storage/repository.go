// Package storage persists budget documents and sync history in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"budgethub/internal/core"
	"budgethub/internal/log"
	"budgethub/internal/sheets"
)

// SQLiteRepository stores each budget as a JSON document next to a few
// indexed columns.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ sheets.DocumentStore = (*SQLiteRepository)(nil)
	_ sheets.RunRecorder   = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) LoadBudget(ctx context.Context, id string) (core.Budget, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT document FROM budgets WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("load %q: %w", id, sheets.ErrBudgetNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("load %q: %w", id, err)
	}
	var b core.Budget
	if err := json.Unmarshal([]byte(doc), &b); err != nil {
		return core.Budget{}, fmt.Errorf("decode %q: %w", id, err)
	}
	return b, nil
}

func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) error {
	if strings.TrimSpace(b.ID) == "" {
		return core.ErrEmptyBudgetID
	}
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode %q: %w", b.ID, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, title, year, linked_sheet_id, document, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			year = excluded.year,
			linked_sheet_id = excluded.linked_sheet_id,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		b.ID, b.Title, b.Year, b.LinkedSheetID, string(doc), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save %q: %w", b.ID, err)
	}
	slog.DebugContext(ctx, "Budget saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldBudgetID, b.ID,
		"sections", len(b.Sections))
	return nil
}

// ListBudgets returns all budgets ordered by id.
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, document FROM budgets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		var b core.Budget
		if err := json.Unmarshal([]byte(doc), &b); err != nil {
			return nil, fmt.Errorf("decode %q: %w", id, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) RecordSyncRun(ctx context.Context, run sheets.SyncRun) (sheets.SyncRun, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs (budget_id, direction, strategy, change_count, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.BudgetID, run.Direction, run.Strategy, run.ChangeCount, run.Summary, run.CreatedAt)
	if err != nil {
		return sheets.SyncRun{}, fmt.Errorf("record sync run: %w", err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return sheets.SyncRun{}, fmt.Errorf("record sync run: %w", err)
	}
	return run, nil
}

func (r *SQLiteRepository) ListSyncRuns(ctx context.Context, budgetID string, limit int) ([]sheets.SyncRun, error) {
	query := `SELECT id, budget_id, direction, strategy, change_count, summary, created_at FROM sync_runs`
	var args []any
	if budgetID != "" {
		query += ` WHERE budget_id = ?`
		args = append(args, budgetID)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var out []sheets.SyncRun
	for rows.Next() {
		var run sheets.SyncRun
		if err := rows.Scan(&run.ID, &run.BudgetID, &run.Direction, &run.Strategy, &run.ChangeCount, &run.Summary, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

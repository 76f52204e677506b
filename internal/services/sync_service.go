// Package services orchestrates pushes and pulls between budget documents
// and spreadsheets.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"budgethub/internal/changes"
	"budgethub/internal/core"
	"budgethub/internal/log"
	"budgethub/internal/sheets"
	"budgethub/internal/sheets/parse"
	"budgethub/internal/sheets/payload"
)

var (
	// ErrNoSpreadsheet is returned when a budget has no linked spreadsheet
	// and no default is configured.
	ErrNoSpreadsheet = errors.New("no spreadsheet linked or configured")
	// ErrStaleReview is returned by Apply when the document changed after
	// the pull it reviews.
	ErrStaleReview = errors.New("budget changed since pull")
)

type SyncConfig struct {
	// DefaultSpreadsheetID is used for budgets without a linked sheet.
	DefaultSpreadsheetID string
	SheetTitle           string
}

// SyncService pushes budgets to spreadsheets and pulls edits back. Calls
// for the same budget are serialized.
type SyncService struct {
	docs   sheets.DocumentStore
	grid   sheets.Gateway
	runs   sheets.RunRecorder
	cfg    SyncConfig
	logger *slog.Logger

	locks sync.Map // budget id -> *sync.Mutex
	now   func() time.Time
}

// NewSyncService wires the service. runs may be nil to skip history.
func NewSyncService(docs sheets.DocumentStore, grid sheets.Gateway, runs sheets.RunRecorder, cfg SyncConfig, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{
		docs:   docs,
		grid:   grid,
		runs:   runs,
		cfg:    cfg,
		logger: logger.With(log.FieldComponent, log.ComponentSync),
		now:    time.Now,
	}
}

func (s *SyncService) lock(budgetID string) func() {
	m, _ := s.locks.LoadOrStore(budgetID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *SyncService) target(ctx context.Context, b core.Budget) (sheets.Target, error) {
	spreadsheetID := b.LinkedSheetID
	if spreadsheetID == "" {
		spreadsheetID = s.cfg.DefaultSpreadsheetID
	}
	if spreadsheetID == "" {
		return sheets.Target{}, fmt.Errorf("budget %q: %w", b.ID, ErrNoSpreadsheet)
	}
	t, err := s.grid.Resolve(ctx, spreadsheetID, s.cfg.SheetTitle)
	if err != nil {
		return sheets.Target{}, fmt.Errorf("resolve sheet for %q: %w", b.ID, err)
	}
	return t, nil
}

// PushResult describes a completed push.
type PushResult struct {
	BudgetID string
	Target   sheets.Target
	RowCount int
}

// Push renders the budget into its sheet. The sheet is cleared, then values
// and formatting are written in that order.
func (s *SyncService) Push(ctx context.Context, budgetID string) (PushResult, error) {
	defer s.lock(budgetID)()
	start := s.now()

	b, err := s.docs.LoadBudget(ctx, budgetID)
	if err != nil {
		return PushResult{}, err
	}
	t, err := s.target(ctx, b)
	if err != nil {
		return PushResult{}, err
	}

	p := payload.Generate(b, t)
	if err := s.grid.Clear(ctx, t); err != nil {
		return PushResult{}, fmt.Errorf("push %q: %w", budgetID, err)
	}
	if err := s.grid.WriteValues(ctx, t, p.ValueRanges); err != nil {
		return PushResult{}, fmt.Errorf("push %q: %w", budgetID, err)
	}
	if err := s.grid.ApplyFormatting(ctx, t, p.FormatRequests); err != nil {
		return PushResult{}, fmt.Errorf("push %q: %w", budgetID, err)
	}

	if b.LinkedSheetID != t.SpreadsheetID {
		b.LinkedSheetID = t.SpreadsheetID
		if err := s.docs.SaveBudget(ctx, b); err != nil {
			return PushResult{}, fmt.Errorf("link %q to %s: %w", budgetID, t.SpreadsheetID, err)
		}
	}

	s.record(ctx, sheets.SyncRun{
		BudgetID:  budgetID,
		Direction: sheets.DirectionPush,
		Summary:   fmt.Sprintf("%d rows written", p.RowCount),
	})
	s.logger.InfoContext(ctx, "Budget pushed",
		log.FieldOperation, log.OpPush,
		log.FieldBudgetID, budgetID,
		log.FieldSpreadsheetID, t.SpreadsheetID,
		log.FieldSheetTitle, t.Title,
		log.FieldRowCount, p.RowCount,
		log.FieldDuration, s.now().Sub(start).Milliseconds())
	return PushResult{BudgetID: budgetID, Target: t, RowCount: p.RowCount}, nil
}

// PullResult is a pull awaiting review. Budget is the document with the
// sheet edits applied; nothing is saved until Apply.
type PullResult struct {
	BudgetID string
	Target   sheets.Target
	Strategy string
	Budget   core.Budget
	Changes  []changes.Change
	Summary  changes.Summary

	base core.Budget
}

// Pull reads the sheet back and reports the differences.
func (s *SyncService) Pull(ctx context.Context, budgetID string) (PullResult, error) {
	defer s.lock(budgetID)()
	return s.pull(ctx, budgetID)
}

func (s *SyncService) pull(ctx context.Context, budgetID string) (PullResult, error) {
	b, err := s.docs.LoadBudget(ctx, budgetID)
	if err != nil {
		return PullResult{}, err
	}
	t, err := s.target(ctx, b)
	if err != nil {
		return PullResult{}, err
	}
	values, err := s.grid.ReadValues(ctx, t)
	if err != nil {
		return PullResult{}, fmt.Errorf("pull %q: %w", budgetID, err)
	}
	colors, err := s.grid.ReadRowColors(ctx, t)
	if err != nil {
		return PullResult{}, fmt.Errorf("pull %q: %w", budgetID, err)
	}

	res := parse.Parse(b, parse.GridFromValues(values), colors)
	summary := res.Summary()
	s.record(ctx, sheets.SyncRun{
		BudgetID:    budgetID,
		Direction:   sheets.DirectionPull,
		Strategy:    res.Strategy,
		ChangeCount: summary.TotalChanges,
		Summary:     summary.Summary,
	})
	s.logger.InfoContext(ctx, "Budget pulled",
		log.FieldOperation, log.OpPull,
		log.FieldBudgetID, budgetID,
		log.FieldSpreadsheetID, t.SpreadsheetID,
		log.FieldStrategy, res.Strategy,
		log.FieldChangeCount, summary.TotalChanges)

	return PullResult{
		BudgetID: budgetID,
		Target:   t,
		Strategy: res.Strategy,
		Budget:   res.Budget,
		Changes:  res.Changes,
		Summary:  summary,
		base:     b,
	}, nil
}

// Apply saves a reviewed pull. It refuses when the document was modified
// after the pull.
func (s *SyncService) Apply(ctx context.Context, r PullResult) error {
	defer s.lock(r.BudgetID)()
	return s.apply(ctx, r)
}

func (s *SyncService) apply(ctx context.Context, r PullResult) error {
	if r.Summary.TotalChanges == 0 {
		return nil
	}
	current, err := s.docs.LoadBudget(ctx, r.BudgetID)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(current, r.base) {
		return fmt.Errorf("apply %q: %w", r.BudgetID, ErrStaleReview)
	}
	if err := s.docs.SaveBudget(ctx, r.Budget); err != nil {
		return fmt.Errorf("apply %q: %w", r.BudgetID, err)
	}
	s.logger.InfoContext(ctx, "Sheet changes applied",
		log.FieldOperation, log.OpApply,
		log.FieldBudgetID, r.BudgetID,
		log.FieldChangeCount, r.Summary.TotalChanges)
	return nil
}

// PullAndApply pulls and immediately applies the result.
func (s *SyncService) PullAndApply(ctx context.Context, budgetID string) (PullResult, error) {
	defer s.lock(budgetID)()
	r, err := s.pull(ctx, budgetID)
	if err != nil {
		return PullResult{}, err
	}
	return r, s.apply(ctx, r)
}

// History returns recent sync runs of a budget.
func (s *SyncService) History(ctx context.Context, budgetID string, limit int) ([]sheets.SyncRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.ListSyncRuns(ctx, budgetID, limit)
}

// LinkedBudgets lists the ids of budgets that can be pushed.
func (s *SyncService) LinkedBudgets(ctx context.Context) ([]string, error) {
	all, err := s.docs.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, b := range all {
		if b.LinkedSheetID != "" || s.cfg.DefaultSpreadsheetID != "" {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

// record stores a sync run. History is best effort and never fails a sync.
func (s *SyncService) record(ctx context.Context, run sheets.SyncRun) {
	if s.runs == nil {
		return
	}
	run.CreatedAt = s.now().UTC()
	if _, err := s.runs.RecordSyncRun(ctx, run); err != nil {
		s.logger.WarnContext(ctx, "Failed to record sync run",
			log.FieldBudgetID, run.BudgetID,
			log.FieldDirection, run.Direction,
			log.FieldError, err)
	}
}

// Package memory provides in-process spreadsheet and document backends for
// local runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	gsheet "google.golang.org/api/sheets/v4"

	"budgethub/internal/core"
	"budgethub/internal/sheets"
	"budgethub/internal/sheets/payload"
)

type tab struct {
	id     int64
	cells  [][]any
	colors map[int]string
}

// Sheet is a sheets.Gateway holding tabs in memory. Formulas are stored as
// written and never evaluated.
type Sheet struct {
	mu     sync.Mutex
	nextID int64
	tabs   map[string]map[string]*tab
}

var _ sheets.Gateway = (*Sheet)(nil)

func NewSheet() *Sheet {
	return &Sheet{tabs: make(map[string]map[string]*tab)}
}

func (s *Sheet) Resolve(_ context.Context, spreadsheetID, title string) (sheets.Target, error) {
	if spreadsheetID == "" || title == "" {
		return sheets.Target{}, fmt.Errorf("resolve sheet: spreadsheet id and title are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tab(spreadsheetID, title, true)
	return sheets.Target{SpreadsheetID: spreadsheetID, SheetID: t.id, Title: title}, nil
}

// tab returns the named tab. Callers hold mu.
func (s *Sheet) tab(spreadsheetID, title string, create bool) *tab {
	book, ok := s.tabs[spreadsheetID]
	if !ok {
		if !create {
			return nil
		}
		book = make(map[string]*tab)
		s.tabs[spreadsheetID] = book
	}
	t, ok := book[title]
	if !ok && create {
		s.nextID++
		t = &tab{id: s.nextID, colors: make(map[int]string)}
		book[title] = t
	}
	return t
}

func (s *Sheet) lookup(t sheets.Target) (*tab, error) {
	tb := s.tab(t.SpreadsheetID, t.Title, false)
	if tb == nil {
		return nil, fmt.Errorf("sheet %q not found in %s", t.Title, t.SpreadsheetID)
	}
	return tb, nil
}

func (s *Sheet) Clear(_ context.Context, t sheets.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tb, err := s.lookup(t)
	if err != nil {
		return err
	}
	tb.cells = nil
	return nil
}

func (s *Sheet) WriteValues(_ context.Context, t sheets.Target, ranges []*gsheet.ValueRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tb, err := s.lookup(t)
	if err != nil {
		return err
	}
	for _, vr := range ranges {
		row, col, err := rangeStart(vr.Range)
		if err != nil {
			return err
		}
		for r, values := range vr.Values {
			for c, v := range values {
				tb.set(row+r, col+c, v)
			}
		}
	}
	return nil
}

func (tb *tab) set(row, col int, v any) {
	for len(tb.cells) <= row {
		tb.cells = append(tb.cells, nil)
	}
	for len(tb.cells[row]) <= col {
		tb.cells[row] = append(tb.cells[row], "")
	}
	tb.cells[row][col] = v
}

// ApplyFormatting records label-cell backgrounds. Other requests are
// accepted and ignored.
func (s *Sheet) ApplyFormatting(_ context.Context, t sheets.Target, requests []*gsheet.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tb, err := s.lookup(t)
	if err != nil {
		return err
	}
	for _, req := range requests {
		rc := req.RepeatCell
		if rc == nil || rc.Range == nil || rc.Cell == nil || rc.Cell.UserEnteredFormat == nil {
			continue
		}
		bg := rc.Cell.UserEnteredFormat.BackgroundColor
		if bg == nil || rc.Range.StartColumnIndex != 0 {
			continue
		}
		hex := payload.HexColor(bg)
		for r := rc.Range.StartRowIndex; r < rc.Range.EndRowIndex; r++ {
			if hex == "#ffffff" {
				delete(tb.colors, int(r)+1)
				continue
			}
			tb.colors[int(r)+1] = hex
		}
	}
	return nil
}

func (s *Sheet) ReadValues(_ context.Context, t sheets.Target) ([][]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tb, err := s.lookup(t)
	if err != nil {
		return nil, err
	}
	out := make([][]any, len(tb.cells))
	for i, row := range tb.cells {
		out[i] = append([]any(nil), row...)
	}
	return out, nil
}

func (s *Sheet) ReadRowColors(_ context.Context, t sheets.Target) (map[int]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tb, err := s.lookup(t)
	if err != nil {
		return nil, err
	}
	out := make(map[int]string, len(tb.colors))
	for r, c := range tb.colors {
		out[r] = c
	}
	return out, nil
}

// SetCell overwrites one cell, the way a user edits the sheet. row is
// 1-based, col 0-based.
func (s *Sheet) SetCell(t sheets.Target, row, col int, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tb, err := s.lookup(t)
	if err != nil {
		return err
	}
	tb.set(row-1, col, v)
	return nil
}

// SetRowColor sets the label background of a 1-based row.
func (s *Sheet) SetRowColor(t sheets.Target, row int, hex string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tb, err := s.lookup(t)
	if err != nil {
		return err
	}
	tb.colors[row] = hex
	return nil
}

// rangeStart returns the 0-based top-left cell of an A1 range such as
// 'My tab'!A3:Q3.
func rangeStart(rng string) (row, col int, err error) {
	ref := rng
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		ref = rng[i+1:]
	}
	ref, _, _ = strings.Cut(ref, ":")
	letters := 0
	for letters < len(ref) && ref[letters] >= 'A' && ref[letters] <= 'Z' {
		col = col*26 + int(ref[letters]-'A'+1)
		letters++
	}
	n, convErr := strconv.Atoi(ref[letters:])
	if letters == 0 || convErr != nil || n < 1 {
		return 0, 0, fmt.Errorf("invalid range %q", rng)
	}
	return n - 1, col - 1, nil
}

// Store is a sheets.DocumentStore and sheets.RunRecorder keeping
// everything in memory.
type Store struct {
	mu      sync.Mutex
	budgets map[string]core.Budget
	runs    []sheets.SyncRun
}

var (
	_ sheets.DocumentStore = (*Store)(nil)
	_ sheets.RunRecorder   = (*Store)(nil)
)

func NewStore(seed ...core.Budget) *Store {
	s := &Store{budgets: make(map[string]core.Budget)}
	for _, b := range seed {
		s.budgets[b.ID] = b.Clone()
	}
	return s
}

// NewStoreFromDir seeds a store from the *.json budget documents in dir. A
// missing directory yields an empty store.
func NewStoreFromDir(dir string) (*Store, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	var seed []core.Budget
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var b core.Budget
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(p), err)
		}
		if strings.TrimSpace(b.ID) == "" {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), core.ErrEmptyBudgetID)
		}
		seed = append(seed, b)
	}
	return NewStore(seed...), nil
}

func (s *Store) LoadBudget(_ context.Context, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("load %q: %w", id, sheets.ErrBudgetNotFound)
	}
	return b.Clone(), nil
}

func (s *Store) SaveBudget(_ context.Context, b core.Budget) error {
	if strings.TrimSpace(b.ID) == "" {
		return core.ErrEmptyBudgetID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.ID] = b.Clone()
	return nil
}

// ListBudgets returns all budgets ordered by id.
func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) RecordSyncRun(_ context.Context, run sheets.SyncRun) (sheets.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = int64(len(s.runs) + 1)
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	s.runs = append(s.runs, run)
	return run, nil
}

func (s *Store) ListSyncRuns(_ context.Context, budgetID string, limit int) ([]sheets.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sheets.SyncRun
	for i := len(s.runs) - 1; i >= 0; i-- {
		if budgetID != "" && s.runs[i].BudgetID != budgetID {
			continue
		}
		out = append(out, s.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

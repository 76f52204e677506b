package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"budgethub/internal/core"
	"budgethub/internal/layout"
	"budgethub/internal/sheets"
	"budgethub/internal/sheets/payload"
)

func testBudget() core.Budget {
	return core.Budget{
		ID:    "b1",
		Title: "Home",
		Sections: []core.Section{
			{ID: "inc", Name: "Income", Type: core.Income, Color: "#d9ead3", ShowTotal: true, Items: []core.Item{
				{ID: "salary", Name: "Salary", MonthlyValues: core.Monthly{100, 200}},
			}},
		},
	}
}

func TestSheetWriteAndReadBack(t *testing.T) {
	ctx := context.Background()
	s := NewSheet()
	target, err := s.Resolve(ctx, "ss", "Budget 2025")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	again, _ := s.Resolve(ctx, "ss", "Budget 2025")
	if again.SheetID != target.SheetID {
		t.Fatalf("resolve created a second tab: %d vs %d", again.SheetID, target.SheetID)
	}

	p := payload.Generate(testBudget(), target)
	if err := s.WriteValues(ctx, target, p.ValueRanges); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.ApplyFormatting(ctx, target, p.FormatRequests); err != nil {
		t.Fatalf("format: %v", err)
	}

	values, err := s.ReadValues(ctx, target)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(values) != p.RowCount {
		t.Fatalf("rows = %d, want %d", len(values), p.RowCount)
	}
	if values[2][layout.ColLabel] != "Salary" || values[2][layout.ColJan+1] != 200.0 {
		t.Fatalf("salary row = %v", values[2])
	}

	colors, err := s.ReadRowColors(ctx, target)
	if err != nil {
		t.Fatalf("colors: %v", err)
	}
	if colors[2] != "#d9ead3" || colors[4] != "#d9ead3" {
		t.Fatalf("colors = %v", colors)
	}
	if _, ok := colors[1]; ok {
		t.Fatal("white rows must not report a color")
	}

	if err := s.SetCell(target, 3, layout.ColJan, 999.0); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx, target); err != nil {
		t.Fatal(err)
	}
	if values, _ := s.ReadValues(ctx, target); len(values) != 0 {
		t.Fatalf("values after clear = %v", values)
	}
}

func TestSheetUnknownTab(t *testing.T) {
	s := NewSheet()
	_, err := s.ReadValues(context.Background(), sheets.Target{SpreadsheetID: "x", Title: "nope"})
	if err == nil {
		t.Fatal("expected an error for a missing tab")
	}
	if _, err := s.Resolve(context.Background(), "", "t"); err == nil {
		t.Fatal("expected an error without a spreadsheet id")
	}
}

func TestRangeStart(t *testing.T) {
	tests := []struct {
		in       string
		row, col int
		wantErr  bool
	}{
		{"'Budget'!A3:Q3", 2, 0, false},
		{"'It''s!'!C10", 9, 2, false},
		{"AA1", 0, 26, false},
		{"'x'!3:3", 0, 0, true},
		{"A0", 0, 0, true},
	}
	for _, tt := range tests {
		row, col, err := rangeStart(tt.in)
		if (err != nil) != tt.wantErr || (!tt.wantErr && (row != tt.row || col != tt.col)) {
			t.Errorf("rangeStart(%q) = %d, %d, %v", tt.in, row, col, err)
		}
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testBudget())

	b, err := s.LoadBudget(ctx, "b1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b.Sections[0].Items[0].Name = "changed"
	again, _ := s.LoadBudget(ctx, "b1")
	if again.Sections[0].Items[0].Name != "Salary" {
		t.Fatal("store handed out shared state")
	}

	if _, err := s.LoadBudget(ctx, "missing"); !errors.Is(err, sheets.ErrBudgetNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := s.SaveBudget(ctx, core.Budget{}); !errors.Is(err, core.ErrEmptyBudgetID) {
		t.Fatalf("err = %v", err)
	}
	if err := s.SaveBudget(ctx, core.Budget{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	all, _ := s.ListBudgets(ctx)
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b1" {
		t.Fatalf("list = %+v", all)
	}
}

func TestStoreSyncRuns(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, id := range []string{"a", "b", "a"} {
		if _, err := s.RecordSyncRun(ctx, sheets.SyncRun{BudgetID: id, Direction: sheets.DirectionPush}); err != nil {
			t.Fatal(err)
		}
	}
	runs, _ := s.ListSyncRuns(ctx, "a", 0)
	if len(runs) != 2 || runs[0].ID != 3 || runs[1].ID != 1 || runs[0].CreatedAt.IsZero() {
		t.Fatalf("runs = %+v", runs)
	}
	if runs, _ := s.ListSyncRuns(ctx, "", 1); len(runs) != 1 || runs[0].ID != 3 {
		t.Fatalf("limited runs = %+v", runs)
	}
}

func TestNewStoreFromDir(t *testing.T) {
	dir := t.TempDir()
	doc := `{"id":"seeded","title":"From disk","sections":[]}`
	if err := os.WriteFile(filepath.Join(dir, "seeded.json"), []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := NewStoreFromDir(dir)
	if err != nil {
		t.Fatalf("NewStoreFromDir: %v", err)
	}
	b, err := s.LoadBudget(context.Background(), "seeded")
	if err != nil || b.Title != "From disk" {
		t.Errorf("unexpected budget %+v, %v", b, err)
	}

	empty, err := NewStoreFromDir(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("missing dir: %v", err)
	}
	if all, _ := empty.ListBudgets(context.Background()); len(all) != 0 {
		t.Errorf("expected empty store, got %d budgets", len(all))
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"title":"no id"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStoreFromDir(dir); !errors.Is(err, core.ErrEmptyBudgetID) {
		t.Errorf("expected ErrEmptyBudgetID, got %v", err)
	}
}

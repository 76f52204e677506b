package payload

import (
	"strings"
	"testing"

	"budgethub/internal/core"
	"budgethub/internal/layout"
	"budgethub/internal/sheets"
)

func pct(p float64) *float64 { return &p }

func flat(v float64) core.Monthly {
	var m core.Monthly
	for i := range m {
		m[i] = v
	}
	return m
}

func scenarioBudget() core.Budget {
	return core.Budget{
		ID:    "b1",
		Title: "Household",
		Sections: []core.Section{
			{ID: "inc", Name: "Income", Type: core.Income, ShowTotal: true, Color: "#d9ead3", Items: []core.Item{
				{ID: "salary", Name: "Salary", MonthlyValues: flat(50000), Note: "net"},
			}},
			{ID: "exp", Name: "Expenses", Type: core.Expense, ShowTotal: true, TotalLabel: "Total expenses (fixed)", Items: []core.Item{
				{ID: "rent", Name: "Rent", MonthlyValues: flat(15000)},
				{ID: "food", Name: "Food", MonthlyValues: flat(5000)},
			}},
			{ID: "sum", Name: "Summary", Type: core.Summary},
		},
	}
}

// rowAt returns the rendered row for a 1-based row index.
func rowAt(t *testing.T, rows [][]any, row int) []any {
	t.Helper()
	if row < 1 || row > len(rows) {
		t.Fatalf("row %d out of range (%d rows)", row, len(rows))
	}
	return rows[row-1]
}

func TestRows_Scenario(t *testing.T) {
	rows := Rows(scenarioBudget())

	header := rowAt(t, rows, 1)
	if header[layout.ColJan] != "Jan" || header[layout.ColDec] != "Dec" || header[layout.ColAnnual] != "Total" ||
		header[layout.ColAverage] != "Avg" || header[layout.ColNotes] != "Notes" {
		t.Fatalf("header = %v", header)
	}

	sectionHeader := rowAt(t, rows, 2)
	if sectionHeader[layout.ColLabel] != "Income" || sectionHeader[layout.ColMeta] != "__BH_SECTION__:inc:income" {
		t.Fatalf("section header = %v", sectionHeader)
	}

	salary := rowAt(t, rows, 3)
	if salary[layout.ColLabel] != "Salary" || salary[layout.ColJan] != 50000.0 || salary[layout.ColNotes] != "net" {
		t.Fatalf("salary row = %v", salary)
	}
	if salary[layout.ColAnnual] != "=SUM(B3:M3)" || salary[layout.ColAverage] != "=N3/12" {
		t.Fatalf("salary annual/avg = %v / %v", salary[layout.ColAnnual], salary[layout.ColAverage])
	}

	total := rowAt(t, rows, 4)
	if total[layout.ColJan] != "=SUM(B3:B3)" || total[layout.ColMeta] != "__BH_TOTAL__:inc" || total[layout.ColLabel] != "Total" {
		t.Fatalf("income total = %v", total)
	}
	if got := rowAt(t, rows, 9)[layout.ColLabel]; got != "Total expenses (fixed)" {
		t.Fatalf("expense total label = %v", got)
	}

	if got := rowAt(t, rows, 10)[layout.ColJan]; got != "=B9" {
		t.Fatalf("expense grand total = %v", got)
	}
	if got := rowAt(t, rows, 11)[layout.ColJan]; got != 0.0 {
		t.Fatalf("savings grand total = %v", got)
	}
	remaining := rowAt(t, rows, 13)
	if remaining[layout.ColJan] != "=(B4)-(B9)" || remaining[layout.ColAnnual] != "=SUM(B13:M13)" {
		t.Fatalf("remaining = %v", remaining)
	}

	running := rowAt(t, rows, 14)
	if running[layout.ColJan] != "=B13" || running[layout.ColJan+1] != "=B14+C13" || running[layout.ColDec] != "=L14+M13" {
		t.Fatalf("running balance = %v", running)
	}
	if running[layout.ColAnnual] != "" || running[layout.ColAverage] != "" {
		t.Fatalf("running balance annual/avg must be blank: %v", running)
	}
	for i, r := range rows {
		if len(r) != layout.ColumnCount {
			t.Fatalf("row %d has %d cells", i+1, len(r))
		}
	}
}

func TestRows_RemainingOneSided(t *testing.T) {
	b := core.Budget{ID: "b", Sections: []core.Section{
		{ID: "e", Name: "E", Type: core.Expense, ShowTotal: true, Items: []core.Item{{ID: "x", Name: "X"}}},
		{ID: "s", Type: core.Summary},
	}}
	l := layout.Build(b)
	rows := Rows(b)
	if got := rows[l.RemainingRow-1][layout.ColJan]; got != "=(0)-(B4)" {
		t.Fatalf("remaining = %v", got)
	}

	none := core.Budget{ID: "b", Sections: []core.Section{{ID: "s", Type: core.Summary}}}
	l = layout.Build(none)
	if got := Rows(none)[l.RemainingRow-1][layout.ColJan]; got != 0.0 {
		t.Fatalf("remaining without totals = %v", got)
	}
}

func savingsBudget() core.Budget {
	return core.Budget{ID: "b", Sections: []core.Section{
		{ID: "exp", Name: "Expenses", Type: core.Expense, ShowTotal: true, Items: []core.Item{
			{ID: "pension", Name: "Pension", SavingsLink: "sav", MonthlyValues: flat(1000)},
		}},
		{ID: "sav", Name: "Savings", Type: core.Savings, ShowTotal: true, Items: []core.Item{
			{ID: "share", Name: "Share", SavingsPercentage: pct(10), MonthlyValues: flat(100)},
		}},
	}}
}

func TestRows_SavingsPercentage(t *testing.T) {
	rows := Rows(savingsBudget())
	auto := rowAt(t, rows, 7)
	if auto[layout.ColLabel] != "→ Pension" || auto[layout.ColJan] != "=B3" || auto[layout.ColDec] != "=M3" {
		t.Fatalf("auto row = %v", auto)
	}
	share := rowAt(t, rows, 8)
	for m := 0; m < core.MonthsPerYear; m++ {
		f, ok := share[layout.ColJan+m].(string)
		if !ok {
			t.Fatalf("month %d is a literal: %v", m, share[layout.ColJan+m])
		}
		want := "=" + layout.MonthColumn(m) + "7*0.1"
		if f != want || !strings.HasSuffix(f, "*0.1") {
			t.Fatalf("month %d = %q, want %q", m, f, want)
		}
	}
	total := rowAt(t, rows, 9)
	if total[layout.ColJan] != "=B7+SUM(B8:B8)" {
		t.Fatalf("savings total = %v", total[layout.ColJan])
	}
}

func TestRows_PercentageWithoutAutoRow(t *testing.T) {
	b := savingsBudget()
	b.Sections[0], b.Sections[1] = b.Sections[1], b.Sections[0]
	rows := Rows(b)
	share := rowAt(t, rows, 3)
	if share[layout.ColJan] != 0.0 {
		t.Fatalf("share month = %v", share[layout.ColJan])
	}
}

func TestTotalFormulaShapes(t *testing.T) {
	item := func(id string, excluded, negative bool) core.Item {
		return core.Item{ID: id, Name: id, Excluded: excluded, Negative: negative, MonthlyValues: flat(1)}
	}
	linked := core.Section{ID: "exp", Name: "Expenses", Type: core.Expense, Items: []core.Item{
		{ID: "link", Name: "Link", SavingsLink: "sav"},
	}}

	tests := []struct {
		name  string
		b     core.Budget
		want  any
		label string
	}{
		{
			name: "no items no auto",
			b:    core.Budget{Sections: []core.Section{{ID: "e", Type: core.Expense, ShowTotal: true}}},
			want: 0.0,
		},
		{
			name: "items plain",
			b: core.Budget{Sections: []core.Section{{ID: "e", Type: core.Expense, ShowTotal: true, Items: []core.Item{
				item("a", false, false), item("b", false, false),
			}}}},
			want: "=SUM(B3:B4)",
		},
		{
			name: "items flagged",
			b: core.Budget{Sections: []core.Section{{ID: "e", Type: core.Expense, ShowTotal: true, Items: []core.Item{
				item("a", false, false), item("b", true, false), item("c", false, true),
			}}}},
			want: "=B3-B5",
		},
		{
			name: "leading negative",
			b: core.Budget{Sections: []core.Section{{ID: "e", Type: core.Expense, ShowTotal: true, Items: []core.Item{
				item("a", false, true), item("b", false, false),
			}}}},
			want: "=-B3+B4",
		},
		{
			name: "all excluded",
			b: core.Budget{Sections: []core.Section{{ID: "e", Type: core.Expense, ShowTotal: true, Items: []core.Item{
				item("a", true, false), item("b", true, true),
			}}}},
			want: 0.0,
		},
		{
			name: "auto only",
			b:    core.Budget{Sections: []core.Section{linked, {ID: "sav", Type: core.Savings, ShowTotal: true}}},
			want: "=B6",
		},
		{
			name: "auto with flagged items",
			b: core.Budget{Sections: []core.Section{linked, {ID: "sav", Type: core.Savings, ShowTotal: true, Items: []core.Item{
				item("a", false, true), item("b", true, false), item("c", false, false),
			}}}},
			want: "=B6-B7+B9",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := layout.Build(tt.b)
			rows := Rows(tt.b)
			var totalRow int
			for _, e := range l.Rows {
				if e.Kind == layout.KindTotal {
					totalRow = e.Row
				}
			}
			if totalRow == 0 {
				t.Fatal("no total row")
			}
			if got := rows[totalRow-1][layout.ColJan]; got != tt.want {
				t.Fatalf("total = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTotal_NeverReferencesExcludedItems(t *testing.T) {
	b := core.Budget{Sections: []core.Section{{ID: "e", Type: core.Expense, ShowTotal: true, Items: []core.Item{
		{ID: "a", Name: "A"},
		{ID: "skip", Name: "Skip", Excluded: true},
		{ID: "neg", Name: "Neg", Negative: true},
	}}}}
	l := layout.Build(b)
	rows := Rows(b)
	skipRow, negRow := l.ItemRows["skip"], l.ItemRows["neg"]
	total := rows[len(rows)-2]
	for m := 0; m < core.MonthsPerYear; m++ {
		col := layout.MonthColumn(m)
		f := total[layout.ColJan+m].(string)
		if strings.Contains(f, cell(col, skipRow)) {
			t.Errorf("month %d references excluded row: %s", m, f)
		}
		if !strings.Contains(f, "-"+cell(col, negRow)) {
			t.Errorf("month %d does not subtract negative row: %s", m, f)
		}
	}
}

func TestGenerate_RangesAndFormatting(t *testing.T) {
	b := scenarioBudget()
	p := Generate(b, sheets.Target{SheetID: 42, Title: "Budget 2025"})

	if p.RowCount != 15 || len(p.ValueRanges) != 15 {
		t.Fatalf("rows = %d, ranges = %d", p.RowCount, len(p.ValueRanges))
	}
	if got := p.ValueRanges[2].Range; got != "'Budget 2025'!A3:Q3" {
		t.Fatalf("range = %q", got)
	}

	first := p.FormatRequests[0]
	if first.RepeatCell == nil || first.RepeatCell.Range.EndRowIndex != 15 ||
		first.RepeatCell.Fields != "userEnteredFormat.backgroundColor,userEnteredFormat.textFormat.bold" {
		t.Fatalf("first request is not the reset: %+v", first)
	}
	for i, r := range p.FormatRequests[1:] {
		if r.RepeatCell != nil && r.RepeatCell.Fields == first.RepeatCell.Fields {
			t.Fatalf("second reset at %d", i+1)
		}
	}

	var hidden, frozen bool
	var colored []int64
	for _, r := range p.FormatRequests {
		if u := r.UpdateDimensionProperties; u != nil && u.Properties.HiddenByUser {
			hidden = u.Range.StartIndex == layout.ColMeta && u.Range.SheetId == 42
		}
		if u := r.UpdateSheetProperties; u != nil {
			frozen = u.Properties.GridProperties.FrozenRowCount == 1 && u.Properties.GridProperties.FrozenColumnCount == 1
		}
		if rc := r.RepeatCell; rc != nil && rc.Fields == "userEnteredFormat.backgroundColor" {
			colored = append(colored, rc.Range.StartRowIndex)
		}
	}
	if !hidden || !frozen {
		t.Fatalf("hidden=%v frozen=%v", hidden, frozen)
	}
	// Income section header (row 2) and its total (row 4), 0-based.
	if len(colored) != 2 || colored[0] != 1 || colored[1] != 3 {
		t.Fatalf("colored rows = %v", colored)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	b := scenarioBudget()
	a := Generate(b, sheets.Target{Title: "x"})
	c := Generate(b, sheets.Target{Title: "x"})
	for i := range a.ValueRanges {
		for j := range a.ValueRanges[i].Values[0] {
			if a.ValueRanges[i].Values[0][j] != c.ValueRanges[i].Values[0][j] {
				t.Fatalf("cell %d/%d differs", i, j)
			}
		}
	}
}

func TestHexColor(t *testing.T) {
	c, ok := ParseHexColor("#ff8000")
	if !ok || c.Red != 1 || c.Blue != 0 {
		t.Fatalf("parse = %+v, %v", c, ok)
	}
	if got := HexColor(c); got != "#ff8000" {
		t.Fatalf("hex = %q", got)
	}
	if short, ok := ParseHexColor("#fff"); !ok || HexColor(short) != "#ffffff" {
		t.Fatalf("short form = %+v", short)
	}
	if _, ok := ParseHexColor("nope"); ok {
		t.Fatal("invalid color parsed")
	}
	if HexColor(nil) != "" {
		t.Fatal("nil color")
	}
}

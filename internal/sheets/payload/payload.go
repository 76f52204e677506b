// Package payload turns a budget into the cell values, formulas and
// formatting requests written to a spreadsheet tab.
//
// Generation is a pure transformation: nothing here reads external state, so
// the same budget always yields the same payload.
package payload

import (
	"fmt"
	"math"
	"strings"

	"budgethub/internal/core"
	"budgethub/internal/layout"
	"budgethub/internal/sheets"

	gsheet "google.golang.org/api/sheets/v4"
)

// Payload is handed to the write API: values first, then formatting.
type Payload struct {
	ValueRanges    []*gsheet.ValueRange
	FormatRequests []*gsheet.Request
	// RowCount is the number of rows written, header included.
	RowCount int
}

// Generate lays out the budget and renders every row.
func Generate(b core.Budget, t sheets.Target) Payload {
	l := layout.Build(b)
	p := Payload{RowCount: l.LastRow()}
	for _, e := range l.Rows {
		p.ValueRanges = append(p.ValueRanges, &gsheet.ValueRange{
			Range:          rowRange(t.Title, e.Row),
			MajorDimension: "ROWS",
			Values:         [][]any{renderRow(b, l, e)},
		})
	}
	p.FormatRequests = formatRequests(l, t.SheetID)
	return p
}

// Rows renders the layout as a plain grid, index 0 being row 1.
func Rows(b core.Budget) [][]any {
	l := layout.Build(b)
	out := make([][]any, 0, len(l.Rows))
	for _, e := range l.Rows {
		out = append(out, renderRow(b, l, e))
	}
	return out
}

func rowRange(title string, row int) string {
	last := layout.ColumnLetter(layout.ColumnCount - 1)
	rng := fmt.Sprintf("A%d:%s%d", row, last, row)
	if title == "" {
		return rng
	}
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + rng
}

func blankRow() []any {
	row := make([]any, layout.ColumnCount)
	for i := range row {
		row[i] = ""
	}
	return row
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func annual(row int) string {
	return fmt.Sprintf("=SUM(%s:%s)", cell(layout.MonthColumn(0), row), cell(layout.MonthColumn(11), row))
}

func average(row int) string {
	return fmt.Sprintf("=%s/12", cell(layout.ColumnLetter(layout.ColAnnual), row))
}

func literal(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func renderRow(b core.Budget, l layout.Layout, e layout.Entry) []any {
	row := blankRow()
	switch e.Kind {
	case layout.KindHeader:
		row[layout.ColLabel] = b.Title
		for m, name := range layout.MonthNames {
			row[layout.ColJan+m] = name
		}
		row[layout.ColAnnual] = layout.AnnualHeader
		row[layout.ColAverage] = layout.AverageHeader
		row[layout.ColNotes] = layout.NotesHeader

	case layout.KindSectionHeader:
		row[layout.ColLabel] = e.Section.Name
		row[layout.ColMeta] = layout.SectionMarker{SectionID: e.Section.ID, SectionType: e.Section.Type}.String()

	case layout.KindItem:
		row[layout.ColLabel] = e.Item.Name
		for m := 0; m < core.MonthsPerYear; m++ {
			row[layout.ColJan+m] = itemMonth(e, m)
		}
		row[layout.ColAnnual] = annual(e.Row)
		row[layout.ColAverage] = average(e.Row)
		row[layout.ColNotes] = e.Item.Note

	case layout.KindSavingsAuto:
		row[layout.ColLabel] = layout.AutoRowPrefix + e.Linked.Name
		for m := 0; m < core.MonthsPerYear; m++ {
			row[layout.ColJan+m] = "=" + cell(layout.MonthColumn(m), e.LinkedRow)
		}
		row[layout.ColAnnual] = annual(e.Row)
		row[layout.ColAverage] = average(e.Row)

	case layout.KindTotal:
		row[layout.ColLabel] = TotalLabel(*e.Section)
		for m := 0; m < core.MonthsPerYear; m++ {
			row[layout.ColJan+m] = totalMonth(e, layout.MonthColumn(m))
		}
		row[layout.ColAnnual] = annual(e.Row)
		row[layout.ColAverage] = average(e.Row)
		row[layout.ColMeta] = layout.TotalMarker{SectionID: e.Section.ID}.String()

	case layout.KindExpenseGrandTotal:
		row[layout.ColLabel] = layout.ExpenseGrandTotal
		for m := 0; m < core.MonthsPerYear; m++ {
			row[layout.ColJan+m] = sumOf(layout.MonthColumn(m), l.ExpenseTotalRows)
		}
		row[layout.ColAnnual] = annual(e.Row)
		row[layout.ColAverage] = average(e.Row)

	case layout.KindSavingsGrandTotal:
		row[layout.ColLabel] = layout.SavingsGrandTotal
		for m := 0; m < core.MonthsPerYear; m++ {
			row[layout.ColJan+m] = sumOf(layout.MonthColumn(m), l.SavingsTotalRows)
		}
		row[layout.ColAnnual] = annual(e.Row)
		row[layout.ColAverage] = average(e.Row)

	case layout.KindRemaining:
		row[layout.ColLabel] = layout.RemainingLabel
		for m := 0; m < core.MonthsPerYear; m++ {
			row[layout.ColJan+m] = remainingMonth(layout.MonthColumn(m), l.IncomeTotalRows, l.ExpenseTotalRows)
		}
		row[layout.ColAnnual] = annual(e.Row)
		row[layout.ColAverage] = average(e.Row)

	case layout.KindRunningBalance:
		row[layout.ColLabel] = layout.RunningBalanceLabel
		for m := 0; m < core.MonthsPerYear; m++ {
			col := layout.MonthColumn(m)
			if m == 0 {
				row[layout.ColJan] = "=" + cell(col, l.RemainingRow)
				continue
			}
			row[layout.ColJan+m] = "=" + cell(layout.MonthColumn(m-1), e.Row) + "+" + cell(col, l.RemainingRow)
		}
		// Annual and average stay blank: a cumulative balance has neither.
	}
	return row
}

// TotalLabel is the label of a section's total row.
func TotalLabel(s core.Section) string {
	if label := strings.TrimSpace(s.TotalLabel); label != "" {
		return label
	}
	return layout.DefaultTotalLabel
}

func itemMonth(e layout.Entry, m int) any {
	p, ok := e.Item.Percentage()
	if !ok || e.Section.Type != core.Savings {
		return literal(e.Item.MonthlyValues[m])
	}
	if e.AutoRow == 0 {
		// Nothing to derive from without a mirrored item.
		return 0.0
	}
	return "=" + cell(layout.MonthColumn(m), e.AutoRow) + "*" + core.FormatAmount(p/100)
}

func totalMonth(e layout.Entry, col string) any {
	items := e.Section.Items
	hasAuto := e.AutoRow > 0
	hasItems := len(e.ItemRows) > 0

	flagged := false
	for _, it := range items {
		if it.Excluded || it.Negative {
			flagged = true
			break
		}
	}

	switch {
	case !hasAuto && !hasItems:
		return 0.0
	case hasAuto && !hasItems:
		return "=" + cell(col, e.AutoRow)
	case !flagged:
		sum := fmt.Sprintf("SUM(%s:%s)", cell(col, e.ItemRows[0]), cell(col, e.ItemRows[len(e.ItemRows)-1]))
		if hasAuto {
			return "=" + cell(col, e.AutoRow) + "+" + sum
		}
		return "=" + sum
	}

	var sb strings.Builder
	if hasAuto {
		sb.WriteString(cell(col, e.AutoRow))
	}
	for i, row := range e.ItemRows {
		it := items[i]
		if it.Excluded {
			continue
		}
		switch {
		case it.Negative:
			sb.WriteString("-")
		case sb.Len() > 0:
			sb.WriteString("+")
		}
		sb.WriteString(cell(col, row))
	}
	if sb.Len() == 0 {
		return 0.0
	}
	return "=" + sb.String()
}

func refs(col string, rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = cell(col, r)
	}
	return strings.Join(parts, "+")
}

func sumOf(col string, rows []int) any {
	if len(rows) == 0 {
		return 0.0
	}
	return "=" + refs(col, rows)
}

// remainingMonth keeps the historical shape: when only one side has totals
// the missing side is spliced in as a literal 0 instead of collapsing.
func remainingMonth(col string, income, expense []int) any {
	if len(income) == 0 && len(expense) == 0 {
		return 0.0
	}
	inc, exp := refs(col, income), refs(col, expense)
	if inc == "" {
		inc = "0"
	}
	if exp == "" {
		exp = "0"
	}
	return "=(" + inc + ")-(" + exp + ")"
}

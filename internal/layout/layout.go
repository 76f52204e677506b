// Package layout maps a budget document onto spreadsheet rows.
//
// The layout is recomputed on every push and pull and never persisted; it is
// the only place that knows which row holds which section, item or total.
package layout

import "budgethub/internal/core"

// Kind tags a row of the layout.
type Kind string

const (
	KindHeader            Kind = "header"
	KindSectionHeader     Kind = "section-header"
	KindItem              Kind = "item"
	KindSavingsAuto       Kind = "savings-auto"
	KindTotal             Kind = "total"
	KindRemaining         Kind = "remaining"
	KindRunningBalance    Kind = "running-balance"
	KindExpenseGrandTotal Kind = "expense-grand-total"
	KindSavingsGrandTotal Kind = "savings-grand-total"
	KindSeparator         Kind = "separator"
)

// HeaderRow is the row reserved for the column labels.
const HeaderRow = 1

// Entry describes one spreadsheet row. Row is 1-based. Section, Item and
// Linked are copies of the document values the row was derived from.
type Entry struct {
	Kind Kind
	Row  int

	Section *core.Section
	Item    *core.Item

	// Linked is the income or expense item mirrored by a savings-auto row.
	Linked    *core.Item
	LinkedRow int

	// AutoRow is the savings-auto row of the entry's section, 0 if none.
	AutoRow int
	// ItemRows lists, for a total row, the item rows it aggregates in order.
	ItemRows []int
}

// Layout is the result of Build.
type Layout struct {
	Rows []Entry

	IncomeTotalRows  []int
	ExpenseTotalRows []int
	SavingsTotalRows []int

	// ItemRows maps item id to its row.
	ItemRows map[string]int

	RemainingRow      int
	RunningBalanceRow int
}

// Options alter the layout to replay sheets written by older versions.
type Options struct {
	OmitSectionHeaders bool
	OmitGrandTotals    bool
}

// Build lays out the budget with the current row format.
func Build(b core.Budget) Layout {
	return BuildWithOptions(b, Options{})
}

// BuildWithOptions lays out the budget. It is deterministic and never fails.
func BuildWithOptions(b core.Budget, opts Options) Layout {
	l := Layout{ItemRows: map[string]int{}}
	row := HeaderRow
	l.Rows = append(l.Rows, Entry{Kind: KindHeader, Row: row})

	summaryDone := false
	for si := range b.Sections {
		s := b.Sections[si]
		if s.Type == core.Summary {
			if summaryDone {
				continue
			}
			summaryDone = true
			row = l.appendSummary(row, &s, opts)
			continue
		}
		row = l.appendSection(row, b, &s, opts)
	}
	return l
}

func (l *Layout) next(row int, e Entry) int {
	row++
	e.Row = row
	l.Rows = append(l.Rows, e)
	return row
}

func (l *Layout) appendSection(row int, b core.Budget, s *core.Section, opts Options) int {
	if !opts.OmitSectionHeaders {
		row = l.next(row, Entry{Kind: KindSectionHeader, Section: s})
	}

	autoRow := 0
	if s.Type == core.Savings {
		if linked, _, ok := b.MirroredItem(s.ID); ok {
			if linkedRow, assigned := l.ItemRows[linked.ID]; assigned {
				linked := linked
				row = l.next(row, Entry{Kind: KindSavingsAuto, Section: s, Linked: &linked, LinkedRow: linkedRow})
				autoRow = row
			}
		}
	}

	itemRows := make([]int, 0, len(s.Items))
	for ii := range s.Items {
		it := &s.Items[ii]
		row = l.next(row, Entry{Kind: KindItem, Section: s, Item: it, AutoRow: autoRow})
		l.ItemRows[it.ID] = row
		itemRows = append(itemRows, row)
	}

	if s.ShowTotal {
		row = l.next(row, Entry{Kind: KindTotal, Section: s, AutoRow: autoRow, ItemRows: itemRows})
		switch s.Type {
		case core.Income:
			l.IncomeTotalRows = append(l.IncomeTotalRows, row)
		case core.Expense:
			l.ExpenseTotalRows = append(l.ExpenseTotalRows, row)
		case core.Savings:
			l.SavingsTotalRows = append(l.SavingsTotalRows, row)
		}
	}

	return l.next(row, Entry{Kind: KindSeparator, Section: s})
}

func (l *Layout) appendSummary(row int, s *core.Section, opts Options) int {
	if !opts.OmitGrandTotals {
		row = l.next(row, Entry{Kind: KindExpenseGrandTotal, Section: s})
		row = l.next(row, Entry{Kind: KindSavingsGrandTotal, Section: s})
	}
	row = l.next(row, Entry{Kind: KindRemaining, Section: s})
	l.RemainingRow = row
	row = l.next(row, Entry{Kind: KindRunningBalance, Section: s})
	l.RunningBalanceRow = row
	return l.next(row, Entry{Kind: KindSeparator, Section: s})
}

// LastRow returns the highest row index in the layout.
func (l Layout) LastRow() int {
	if len(l.Rows) == 0 {
		return 0
	}
	return l.Rows[len(l.Rows)-1].Row
}

// Entry returns the entry at the given row.
func (l Layout) Entry(row int) (Entry, bool) {
	i := row - HeaderRow
	if i < 0 || i >= len(l.Rows) {
		return Entry{}, false
	}
	return l.Rows[i], true
}

// Package parse reads a budget back from its spreadsheet rendering.
//
// Parsing walks a ladder of strategies, most specific first. The first one
// that succeeds either rebuilds the document structure from hidden markers
// or yields a mapping from item id to sheet row, which is then diffed
// against the document to produce field level changes.
package parse

import (
	"strings"

	"budgethub/internal/changes"
	"budgethub/internal/core"
)

// Strategy names, as reported in Result.
const (
	StrategyMarkerRebuild = "marker-rebuild"
	StrategyLayoutReplay  = "layout-replay"
	StrategyMarkerMapping = "marker-mapping"
	StrategyNameMatching  = "name-matching"
)

// RowColors maps a 1-based row to the hex background color of its label
// cell.
type RowColors map[int]string

// Result is the outcome of Parse. Budget is an updated copy of the input.
type Result struct {
	Budget   core.Budget
	Changes  []changes.Change
	Strategy string
}

// Summary summarizes the detected changes.
func (r Result) Summary() changes.Summary {
	return changes.Summarize(r.Changes)
}

type input struct {
	budget  core.Budget
	grid    Grid
	colors  RowColors
	markers []markerRow
}

// outcome is what a successful strategy yields: either a rebuilt budget or
// a row mapping to diff against.
type outcome struct {
	rebuilt *core.Budget
	changes []changes.Change
	rows    map[string]int
}

type strategy interface {
	name() string
	attempt(in input) (outcome, bool)
}

var ladder = []strategy{
	markerRebuild{},
	layoutReplay{},
	markerMapping{},
	nameMatching{},
}

// Parse reconstructs b from the sheet grid. The input budget is not
// modified. colors may be nil.
func Parse(b core.Budget, g Grid, colors RowColors) Result {
	in := input{
		budget:  b.Clone(),
		grid:    g,
		colors:  colors,
		markers: g.sectionMarkers(),
	}
	for _, s := range ladder {
		out, ok := s.attempt(in)
		if !ok {
			continue
		}
		if out.rebuilt != nil {
			return Result{Budget: *out.rebuilt, Changes: out.changes, Strategy: s.name()}
		}
		updated, list := diff(in.budget, g, out.rows)
		return Result{Budget: updated, Changes: list, Strategy: s.name()}
	}
	// nameMatching always succeeds.
	return Result{Budget: in.budget, Strategy: StrategyNameMatching}
}

// diff compares each mapped item with its row and applies sheet values to
// a copy of b. Percentage items are derived and never compared.
func diff(b core.Budget, g Grid, rows map[string]int) (core.Budget, []changes.Change) {
	updated := b.Clone()
	var list []changes.Change
	for si := range updated.Sections {
		s := &updated.Sections[si]
		if s.Type == core.Summary {
			continue
		}
		for ii := range s.Items {
			it := &s.Items[ii]
			row, ok := rows[it.ID]
			if !ok || it.IsPercentage(*s) {
				continue
			}
			base := changes.Change{SectionName: s.Name, ItemID: it.ID, ItemName: it.Name}

			if label := g.Label(row); label != "" && label != strings.TrimSpace(it.Name) {
				c := base
				c.Type, c.Field, c.OldValue, c.NewValue = changes.TypeName, "name", it.Name, label
				list = append(list, c)
				it.Name = label
			}
			for m := range it.MonthlyValues {
				v := g.Month(row, m)
				if core.AmountsEqual(v, it.MonthlyValues[m]) {
					continue
				}
				month := m
				c := base
				c.Type, c.Field, c.MonthIndex = changes.TypeValue, "monthlyValues", &month
				c.OldValue, c.NewValue = it.MonthlyValues[m], v
				list = append(list, c)
				it.MonthlyValues[m] = v
			}
			if note := g.Note(row); note != strings.TrimSpace(it.Note) {
				c := base
				c.Type, c.Field, c.OldValue, c.NewValue = changes.TypeNote, "note", it.Note, note
				list = append(list, c)
				it.Note = note
			}
		}
	}
	return updated, list
}

package parse

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"budgethub/internal/changes"
	"budgethub/internal/core"
	"budgethub/internal/layout"
	"budgethub/internal/sheets/payload"
)

// newID assigns ids to items that appear in the sheet only.
var newID = uuid.NewString

// markerRebuild reconstructs the section structure from hidden markers. It
// only applies when the structure read back differs from the document;
// otherwise markerMapping diffs the fields.
type markerRebuild struct{}

func (markerRebuild) name() string { return StrategyMarkerRebuild }

func (markerRebuild) attempt(in input) (outcome, bool) {
	if len(in.markers) == 0 {
		return outcome{}, false
	}
	rebuilt := rebuild(in)
	if sameStructure(in.budget, rebuilt) {
		return outcome{}, false
	}
	c := changes.Change{
		Type:     changes.TypeStructure,
		Field:    "sections",
		OldValue: describe(in.budget),
		NewValue: describe(rebuilt),
	}
	return outcome{rebuilt: &rebuilt, changes: []changes.Change{c}}, true
}

func rebuild(in input) core.Budget {
	b, g := in.budget, in.grid
	out := b.Clone()
	out.Sections = nil

	claimed := make(map[string]bool)
	seen := make(map[string]bool)
	autoTargets := make(map[string]string)

	for i, mr := range in.markers {
		id := mr.marker.SectionID
		if mr.marker.SectionType == core.Summary || seen[id] {
			continue
		}
		seen[id] = true
		end := g.Rows() + 1
		if i+1 < len(in.markers) {
			end = in.markers[i+1].row
		}

		existing, found := b.FindSection(id)
		s := core.Section{ID: id, Type: mr.marker.SectionType}
		if found {
			s = existing.Clone()
			s.Type = mr.marker.SectionType
			s.Items = nil
			s.ShowTotal = false
		}
		if label := g.Label(mr.row); label != "" {
			s.Name = label
		}
		if c, ok := in.colors.at(mr.row); ok && !strings.EqualFold(c, s.Color) {
			s.Color = c
		}

		sp := g.span(mr.row, end)
		if sp.totalRow != 0 {
			s.ShowTotal = true
			if label := g.Label(sp.totalRow); label != "" && label != payload.TotalLabel(s) {
				s.TotalLabel = label
				if label == layout.DefaultTotalLabel {
					s.TotalLabel = ""
				}
			}
		}
		if sp.autoRow != 0 && s.Type == core.Savings {
			autoTargets[s.ID] = autoRowTarget(g.Label(sp.autoRow))
		}

		for idx, row := range sp.itemRows {
			label := g.Label(row)
			it, ok := claimItem(b, existing, found, label, idx, len(sp.itemRows), claimed)
			if !ok {
				it = core.Item{ID: newID()}
			}
			claimed[it.ID] = true
			if label != "" {
				it.Name = label
			}
			if !it.IsPercentage(s) {
				for m := range it.MonthlyValues {
					it.MonthlyValues[m] = g.Month(row, m)
				}
			}
			it.Note = g.Note(row)
			s.Items = append(s.Items, it)
		}
		out.Sections = append(out.Sections, s)
	}

	for idx, s := range b.Sections {
		if s.Type != core.Summary {
			continue
		}
		at := min(idx, len(out.Sections))
		out.Sections = append(out.Sections[:at], append([]core.Section{s.Clone()}, out.Sections[at:]...)...)
	}

	relink(&out, autoTargets)
	return out
}

// claimItem finds the document item a sheet row stands for: by name within
// the section, then by name anywhere, then by position when the section
// kept its item count.
func claimItem(b core.Budget, existing core.Section, found bool, label string, idx, count int, claimed map[string]bool) (core.Item, bool) {
	if label != "" {
		if found {
			for _, it := range existing.Items {
				if !claimed[it.ID] && strings.TrimSpace(it.Name) == label {
					return it.Clone(), true
				}
			}
		}
		for _, s := range b.Sections {
			if s.Type == core.Summary {
				continue
			}
			for _, it := range s.Items {
				if !claimed[it.ID] && strings.TrimSpace(it.Name) == label {
					return it.Clone(), true
				}
			}
		}
	}
	if found && len(existing.Items) == count {
		if it := existing.Items[idx]; !claimed[it.ID] {
			return it.Clone(), true
		}
	}
	return core.Item{}, false
}

// relink drops savings links to sections that no longer exist and
// re-derives mirrored items from the savings auto rows.
func relink(b *core.Budget, autoTargets map[string]string) {
	savings := make(map[string]bool)
	for _, s := range b.Sections {
		if s.Type == core.Savings {
			savings[s.ID] = true
		}
	}
	for si := range b.Sections {
		for ii := range b.Sections[si].Items {
			it := &b.Sections[si].Items[ii]
			if it.SavingsLink != "" && !savings[it.SavingsLink] {
				it.SavingsLink = ""
			}
		}
	}
	for si, s := range b.Sections {
		target, ok := autoTargets[s.ID]
		if !ok || target == "" {
			continue
		}
		if mirrored, _, ok := b.MirroredItem(s.ID); ok && strings.TrimSpace(mirrored.Name) == target {
			continue
		}
		// Auto rows mirror items from sections above the savings section.
		linked := false
		for pi := 0; pi < si; pi++ {
			if !b.Sections[pi].Type.Aggregated() {
				continue
			}
			for ii := range b.Sections[pi].Items {
				it := &b.Sections[pi].Items[ii]
				switch {
				case !linked && strings.TrimSpace(it.Name) == target && (it.SavingsLink == "" || it.SavingsLink == s.ID):
					it.SavingsLink = s.ID
					linked = true
				case it.SavingsLink == s.ID:
					it.SavingsLink = ""
				}
			}
		}
	}
}

// sameStructure compares everything a rebuild can change except item
// names, values and notes, which field diffing reports.
func sameStructure(a, b core.Budget) bool {
	if len(a.Sections) != len(b.Sections) {
		return false
	}
	for i := range a.Sections {
		sa, sb := a.Sections[i], b.Sections[i]
		if sa.ID != sb.ID || sa.Type != sb.Type || strings.TrimSpace(sa.Name) != strings.TrimSpace(sb.Name) ||
			!strings.EqualFold(sa.Color, sb.Color) || sa.ShowTotal != sb.ShowTotal ||
			payload.TotalLabel(sa) != payload.TotalLabel(sb) || len(sa.Items) != len(sb.Items) {
			return false
		}
		for j := range sa.Items {
			if sa.Items[j].ID != sb.Items[j].ID || sa.Items[j].SavingsLink != sb.Items[j].SavingsLink {
				return false
			}
		}
	}
	return true
}

func describe(b core.Budget) string {
	sections, items := 0, 0
	for _, s := range b.Sections {
		if s.Type == core.Summary {
			continue
		}
		sections++
		items += len(s.Items)
	}
	return fmt.Sprintf("%d sections, %d items", sections, items)
}

// at returns the normalized color of a row. A white background reads as no
// color.
func (c RowColors) at(row int) (string, bool) {
	v, ok := c[row]
	if !ok {
		return "", false
	}
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "", "#ffffff", "ffffff", "#fff":
		return "", true
	}
	if !strings.HasPrefix(v, "#") {
		v = "#" + v
	}
	return v, true
}

// layoutReplay recomputes the layout under each known row format and keeps
// the first whose item rows all hold plausible labels. Sheets with markers
// are handled by the marker strategies.
type layoutReplay struct{}

var replayOptions = []layout.Options{
	{},
	{OmitGrandTotals: true},
	{OmitSectionHeaders: true},
	{OmitSectionHeaders: true, OmitGrandTotals: true},
}

func (layoutReplay) name() string { return StrategyLayoutReplay }

func (layoutReplay) attempt(in input) (outcome, bool) {
	if len(in.markers) > 0 {
		return outcome{}, false
	}
	for _, opts := range replayOptions {
		l := layout.BuildWithOptions(in.budget, opts)
		ok := true
		for _, row := range l.ItemRows {
			if !in.grid.isPlausibleItem(row) || in.grid.isTotalRow(row) {
				ok = false
				break
			}
		}
		if ok {
			return outcome{rows: l.ItemRows}, true
		}
	}
	return outcome{}, false
}

// markerMapping assigns each section's items, in order, to the item rows
// found under its marker.
type markerMapping struct{}

func (markerMapping) name() string { return StrategyMarkerMapping }

func (markerMapping) attempt(in input) (outcome, bool) {
	if len(in.markers) == 0 {
		return outcome{}, false
	}
	rows := make(map[string]int)
	for i, mr := range in.markers {
		s, ok := in.budget.FindSection(mr.marker.SectionID)
		if !ok || s.Type == core.Summary {
			continue
		}
		end := in.grid.Rows() + 1
		if i+1 < len(in.markers) {
			end = in.markers[i+1].row
		}
		sp := in.grid.span(mr.row, end)
		for k, it := range s.Items {
			if k >= len(sp.itemRows) {
				break
			}
			if _, dup := rows[it.ID]; !dup {
				rows[it.ID] = sp.itemRows[k]
			}
		}
	}
	return outcome{rows: rows}, true
}

// nameMatching maps each item to the first unclaimed row labelled with its
// name. It always succeeds.
type nameMatching struct{}

func (nameMatching) name() string { return StrategyNameMatching }

func (nameMatching) attempt(in input) (outcome, bool) {
	rows := make(map[string]int)
	taken := make(map[int]bool)
	for _, s := range in.budget.Sections {
		if s.Type == core.Summary {
			continue
		}
		for _, it := range s.Items {
			name := strings.TrimSpace(it.Name)
			if name == "" {
				continue
			}
			for row := layout.HeaderRow + 1; row <= in.grid.Rows(); row++ {
				if taken[row] || !in.grid.isPlausibleItem(row) || in.grid.Label(row) != name {
					continue
				}
				rows[it.ID] = row
				taken[row] = true
				break
			}
		}
	}
	return outcome{rows: rows}, true
}

package parse

import (
	"strings"

	"budgethub/internal/layout"
)

// Labels that end a section, including those written by older versions.
var boundaryLabels = map[string]bool{
	strings.ToLower(layout.ExpenseGrandTotal):   true,
	strings.ToLower(layout.SavingsGrandTotal):   true,
	strings.ToLower(layout.RemainingLabel):      true,
	strings.ToLower(layout.RunningBalanceLabel): true,
	"udgifter i alt":  true,
	"opsparing i alt": true,
	"rest":            true,
	"løbende saldo":   true,
}

// Prefixes of mirrored savings rows. "↳ " was used before "→ ".
var autoRowPrefixes = []string{strings.TrimSpace(layout.AutoRowPrefix), "↳"}

var totalLabelPrefixes = []string{"total", "i alt"}

func isBoundaryLabel(label string) bool {
	return boundaryLabels[strings.ToLower(strings.TrimSpace(label))]
}

func isAutoRowLabel(label string) bool {
	label = strings.TrimSpace(label)
	for _, p := range autoRowPrefixes {
		if strings.HasPrefix(label, p) {
			return true
		}
	}
	return false
}

// autoRowTarget strips the glyph from a mirrored row label.
func autoRowTarget(label string) string {
	label = strings.TrimSpace(label)
	for _, p := range autoRowPrefixes {
		if rest, ok := strings.CutPrefix(label, p); ok {
			return strings.TrimSpace(rest)
		}
	}
	return label
}

func looksLikeTotalLabel(label string) bool {
	l := strings.ToLower(strings.TrimSpace(label))
	for _, p := range totalLabelPrefixes {
		if strings.HasPrefix(l, p) && !boundaryLabels[l] {
			return true
		}
	}
	return false
}

// isBlank reports whether a row carries nothing at all.
func (g Grid) isBlank(row int) bool {
	if row < 1 || row > g.Rows() {
		return true
	}
	for _, c := range g[row-1] {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

func (g Grid) hasMarker(row int) bool {
	return layout.IsMarker(g.Meta(row))
}

// isTotalRow detects a section's total row: either it carries a total
// marker, or its label starts like a total and the next row closes the
// section without being a marked total itself.
func (g Grid) isTotalRow(row int) bool {
	if _, ok := layout.DecodeTotalMarker(g.Meta(row)); ok {
		return true
	}
	if !looksLikeTotalLabel(g.Label(row)) {
		return false
	}
	next := row + 1
	if _, ok := layout.DecodeTotalMarker(g.Meta(next)); ok {
		return false
	}
	return g.isBlank(next) || isBoundaryLabel(g.Label(next)) || g.hasMarker(next)
}

// isPlausibleItem reports whether a row could hold an item.
func (g Grid) isPlausibleItem(row int) bool {
	if row <= layout.HeaderRow || row > g.Rows() {
		return false
	}
	label := g.Label(row)
	return label != "" && !isBoundaryLabel(label) && !isAutoRowLabel(label) && !g.hasMarker(row)
}

type markerRow struct {
	row    int
	marker layout.SectionMarker
}

func (g Grid) sectionMarkers() []markerRow {
	var out []markerRow
	for row := 1; row <= g.Rows(); row++ {
		if m, ok := layout.DecodeSectionMarker(g.Meta(row)); ok {
			out = append(out, markerRow{row: row, marker: m})
		}
	}
	return out
}

// sectionSpan classifies the rows following a section marker up to end
// (exclusive). It stops at the first row that closes the section.
type sectionSpan struct {
	itemRows []int
	autoRow  int
	totalRow int
}

// markedTotal returns the row carrying the total marker of section id
// between start and end, or 0.
func (g Grid) markedTotal(id string, start, end int) int {
	for row := start + 1; row < end; row++ {
		if m, ok := layout.DecodeTotalMarker(g.Meta(row)); ok && m.SectionID == id {
			return row
		}
		if _, ok := layout.DecodeSectionMarker(g.Meta(row)); ok {
			return 0
		}
	}
	return 0
}

// span reads a section from its marker row. Metadata wins over labels: a
// total marker for the section closes it as its total row, any other marker
// closes it without one. Label heuristics apply only to unmarked sections.
func (g Grid) span(start, end int) sectionSpan {
	var s sectionSpan
	section, _ := layout.DecodeSectionMarker(g.Meta(start))
	marked := g.markedTotal(section.SectionID, start, end)
	for row := start + 1; row < end; row++ {
		label := g.Label(row)
		switch {
		case row == marked:
			s.totalRow = row
			return s
		case layout.IsMarker(g.Meta(row)), g.isBlank(row):
			return s
		case marked == 0 && isBoundaryLabel(label):
			return s
		case marked == 0 && g.isTotalRow(row):
			s.totalRow = row
			return s
		case isAutoRowLabel(label):
			if s.autoRow == 0 {
				s.autoRow = row
			}
		default:
			s.itemRows = append(s.itemRows, row)
		}
	}
	return s
}

package layout

import (
	"strings"

	"budgethub/internal/core"
)

const (
	sectionMarkerPrefix = "__BH_SECTION__:"
	totalMarkerPrefix   = "__BH_TOTAL__:"
)

// SectionMarker ties a section-header row back to its section.
type SectionMarker struct {
	SectionID   string
	SectionType core.SectionType
}

// TotalMarker ties a total row back to its section.
type TotalMarker struct {
	SectionID string
}

func (m SectionMarker) String() string {
	return sectionMarkerPrefix + m.SectionID + ":" + string(m.SectionType)
}

func (m TotalMarker) String() string {
	return totalMarkerPrefix + m.SectionID
}

// DecodeSectionMarker parses a metadata cell written by SectionMarker.String.
// The section id may itself contain colons; the type is the last segment.
func DecodeSectionMarker(cell string) (SectionMarker, bool) {
	cell = strings.TrimSpace(cell)
	rest, ok := strings.CutPrefix(cell, sectionMarkerPrefix)
	if !ok {
		return SectionMarker{}, false
	}
	i := strings.LastIndex(rest, ":")
	if i <= 0 {
		return SectionMarker{}, false
	}
	typ := core.SectionType(rest[i+1:])
	if !typ.IsValid() {
		return SectionMarker{}, false
	}
	return SectionMarker{SectionID: rest[:i], SectionType: typ}, true
}

// DecodeTotalMarker parses a metadata cell written by TotalMarker.String.
func DecodeTotalMarker(cell string) (TotalMarker, bool) {
	cell = strings.TrimSpace(cell)
	id, ok := strings.CutPrefix(cell, totalMarkerPrefix)
	if !ok || id == "" {
		return TotalMarker{}, false
	}
	return TotalMarker{SectionID: id}, true
}

// IsMarker reports whether a cell holds any machine marker.
func IsMarker(cell string) bool {
	cell = strings.TrimSpace(cell)
	return strings.HasPrefix(cell, sectionMarkerPrefix) || strings.HasPrefix(cell, totalMarkerPrefix)
}

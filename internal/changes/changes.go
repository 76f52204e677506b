// Package changes describes differences found when reading a budget back
// from a spreadsheet and summarizes them for review.
package changes

import (
	"fmt"
	"strings"
)

// Type classifies a change.
type Type string

const (
	TypeValue     Type = "value"
	TypeName      Type = "name"
	TypeNote      Type = "note"
	TypeStructure Type = "structure"
)

// Change is one detected difference between the document and the sheet.
// OldValue and NewValue are float64 for value changes and string otherwise.
type Change struct {
	Type        Type   `json:"type"`
	SectionName string `json:"sectionName"`
	ItemID      string `json:"itemId,omitempty"`
	ItemName    string `json:"itemName,omitempty"`
	Field       string `json:"field"`
	// MonthIndex is the 0-based month of a value change, nil otherwise.
	MonthIndex *int `json:"monthIndex,omitempty"`
	OldValue   any  `json:"oldValue"`
	NewValue   any  `json:"newValue"`
}

// Counts tallies changes by type.
type Counts struct {
	Values    int `json:"values"`
	Names     int `json:"names"`
	Notes     int `json:"notes"`
	Structure int `json:"structure"`
	Total     int `json:"total"`
}

// Summary is the review-facing digest of a change list.
type Summary struct {
	TotalChanges int               `json:"totalChanges"`
	Summary      string            `json:"summary"`
	BySection    map[string]Counts `json:"bySection"`
	// Sections lists section names in the order first seen.
	Sections []string `json:"sections"`
}

const noChanges = "No changes detected"

func (c *Counts) add(t Type) {
	switch t {
	case TypeValue:
		c.Values++
	case TypeName:
		c.Names++
	case TypeNote:
		c.Notes++
	case TypeStructure:
		c.Structure++
	}
	c.Total++
}

// Phrase renders counts as "2 values, 1 name changed".
func (c Counts) Phrase() string {
	if c.Total == 0 {
		return noChanges
	}
	var parts []string
	for _, p := range []struct {
		n        int
		singular string
	}{
		{c.Values, "value"},
		{c.Names, "name"},
		{c.Notes, "note"},
		{c.Structure, "structure"},
	} {
		if p.n == 0 {
			continue
		}
		word := p.singular
		if p.n != 1 {
			word += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", p.n, word))
	}
	return strings.Join(parts, ", ") + " changed"
}

// Summarize groups changes by section and counts them by type.
func Summarize(list []Change) Summary {
	s := Summary{TotalChanges: len(list), BySection: map[string]Counts{}}
	var all Counts
	for _, c := range list {
		counts, seen := s.BySection[c.SectionName]
		if !seen {
			s.Sections = append(s.Sections, c.SectionName)
		}
		counts.add(c.Type)
		s.BySection[c.SectionName] = counts
		all.add(c.Type)
	}
	s.Summary = all.Phrase()
	return s
}

package core

import (
	"errors"
	"fmt"
	"strings"
)

// MonthsPerYear is the fixed width of every item's monthly values.
const MonthsPerYear = 12

const (
	Income  SectionType = "income"
	Expense SectionType = "expense"
	Savings SectionType = "savings"
	Summary SectionType = "summary"
)

type (
	SectionType string

	// Monthly holds one value per calendar month, January first.
	Monthly [MonthsPerYear]float64

	Budget struct {
		ID            string    `json:"id"`
		Title         string    `json:"title"`
		Year          int       `json:"year"`
		LinkedSheetID string    `json:"linkedSheetId,omitempty"`
		Sections      []Section `json:"sections"`
	}

	Section struct {
		ID         string      `json:"id"`
		Name       string      `json:"name"`
		Type       SectionType `json:"type"`
		Color      string      `json:"color,omitempty"`
		ShowTotal  bool        `json:"showTotal"`
		TotalLabel string      `json:"totalLabel,omitempty"`
		Items      []Item      `json:"items"`
	}

	Item struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Color    string `json:"color,omitempty"` // empty inherits the section color
		Note     string `json:"note,omitempty"`
		Excluded bool   `json:"excluded,omitempty"`
		Negative bool   `json:"negative,omitempty"`
		// SavingsLink is the id of a savings section mirrored by this item.
		SavingsLink       string   `json:"savingsLink,omitempty"`
		SavingsPercentage *float64 `json:"savingsPercentage,omitempty"`
		MonthlyValues     Monthly  `json:"monthlyValues"`
	}
)

var (
	ErrEmptyBudgetID       = errors.New("empty budget id")
	ErrEmptySectionID      = errors.New("empty section id")
	ErrEmptyItemID         = errors.New("empty item id")
	ErrDuplicateID         = errors.New("duplicate id")
	ErrInvalidSectionType  = errors.New("invalid section type")
	ErrMultipleSummaries   = errors.New("more than one summary section")
	ErrSummaryHasItems     = errors.New("summary section holds items")
	ErrInvalidSavingsLink  = errors.New("savings link does not reference a savings section")
	ErrInvalidPercentage   = errors.New("invalid savings percentage")
	ErrDuplicateSavingLink = errors.New("savings section linked by more than one item")
)

func (t SectionType) IsValid() bool {
	switch t {
	case Income, Expense, Savings, Summary:
		return true
	}
	return false
}

// Aggregated reports whether items of this section type feed the income or
// expense side of the budget.
func (t SectionType) Aggregated() bool {
	return t == Income || t == Expense
}

// NormalizeMonthly copies up to twelve values, zero-filling the rest.
func NormalizeMonthly(values []float64) Monthly {
	var m Monthly
	copy(m[:], values)
	return m
}

// Percentage returns the savings percentage and whether it is set.
func (i Item) Percentage() (float64, bool) {
	if i.SavingsPercentage == nil {
		return 0, false
	}
	return *i.SavingsPercentage, true
}

// IsPercentage reports whether the item's values are derived from the
// savings auto-row of the given section rather than stored.
func (i Item) IsPercentage(s Section) bool {
	return s.Type == Savings && i.SavingsPercentage != nil
}

// Clone returns a deep copy of the budget.
func (b Budget) Clone() Budget {
	out := b
	out.Sections = make([]Section, len(b.Sections))
	for i, s := range b.Sections {
		out.Sections[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	out := s
	out.Items = make([]Item, len(s.Items))
	for i, it := range s.Items {
		out.Items[i] = it.Clone()
	}
	return out
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	out := i
	if i.SavingsPercentage != nil {
		p := *i.SavingsPercentage
		out.SavingsPercentage = &p
	}
	return out
}

// SummarySection returns the first summary section, located by type.
func (b Budget) SummarySection() (Section, bool) {
	for _, s := range b.Sections {
		if s.Type == Summary {
			return s, true
		}
	}
	return Section{}, false
}

func (b Budget) FindSection(id string) (Section, bool) {
	for _, s := range b.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// FindItem returns the item with the given id together with its section.
func (b Budget) FindItem(id string) (Item, Section, bool) {
	for _, s := range b.Sections {
		for _, it := range s.Items {
			if it.ID == id {
				return it, s, true
			}
		}
	}
	return Item{}, Section{}, false
}

// LinkedItemFor returns the first income or expense item whose savings link
// points at the given savings section. Ties resolve to the earliest item in
// document order.
func (b Budget) LinkedItemFor(savingsSectionID string) (Item, Section, bool) {
	if savingsSectionID == "" {
		return Item{}, Section{}, false
	}
	for _, s := range b.Sections {
		if !s.Type.Aggregated() {
			continue
		}
		for _, it := range s.Items {
			if it.SavingsLink == savingsSectionID {
				return it, s, true
			}
		}
	}
	return Item{}, Section{}, false
}

// MirroredItem returns the item a savings section's auto-row mirrors: the
// first income or expense item linking to the section that appears in a
// section placed before it. Forward references are never resolved.
func (b Budget) MirroredItem(savingsSectionID string) (Item, Section, bool) {
	if savingsSectionID == "" {
		return Item{}, Section{}, false
	}
	for _, s := range b.Sections {
		if s.ID == savingsSectionID {
			break
		}
		if !s.Type.Aggregated() {
			continue
		}
		for _, it := range s.Items {
			if it.SavingsLink == savingsSectionID {
				return it, s, true
			}
		}
	}
	return Item{}, Section{}, false
}

// Validate checks structural invariants of the document. Layout, payload
// generation and parsing never require a valid budget; this is used when
// documents enter the system.
func (b Budget) Validate() error {
	var errs []error
	if strings.TrimSpace(b.ID) == "" {
		errs = append(errs, ErrEmptyBudgetID)
	}

	seen := map[string]bool{}
	savingsIDs := map[string]bool{}
	summaries := 0
	for _, s := range b.Sections {
		if s.Type == Savings {
			savingsIDs[s.ID] = true
		}
	}

	linkedBy := map[string]string{}
	for _, s := range b.Sections {
		if strings.TrimSpace(s.ID) == "" {
			errs = append(errs, fmt.Errorf("section %q: %w", s.Name, ErrEmptySectionID))
		} else if seen[s.ID] {
			errs = append(errs, fmt.Errorf("section %q: %w", s.ID, ErrDuplicateID))
		}
		seen[s.ID] = true

		if !s.Type.IsValid() {
			errs = append(errs, fmt.Errorf("section %q type %q: %w", s.ID, s.Type, ErrInvalidSectionType))
		}
		if s.Type == Summary {
			summaries++
			if len(s.Items) > 0 {
				errs = append(errs, fmt.Errorf("section %q: %w", s.ID, ErrSummaryHasItems))
			}
		}

		for _, it := range s.Items {
			if strings.TrimSpace(it.ID) == "" {
				errs = append(errs, fmt.Errorf("item %q: %w", it.Name, ErrEmptyItemID))
			} else if seen[it.ID] {
				errs = append(errs, fmt.Errorf("item %q: %w", it.ID, ErrDuplicateID))
			}
			seen[it.ID] = true

			if it.SavingsLink != "" {
				if !s.Type.Aggregated() || !savingsIDs[it.SavingsLink] {
					errs = append(errs, fmt.Errorf("item %q: %w", it.ID, ErrInvalidSavingsLink))
				} else if first, dup := linkedBy[it.SavingsLink]; dup {
					errs = append(errs, fmt.Errorf("items %q and %q: %w", first, it.ID, ErrDuplicateSavingLink))
				} else {
					linkedBy[it.SavingsLink] = it.ID
				}
			}
			if p, ok := it.Percentage(); ok {
				if s.Type != Savings || p < 0 || p > 100 {
					errs = append(errs, fmt.Errorf("item %q percentage %v: %w", it.ID, p, ErrInvalidPercentage))
				}
			}
		}
	}
	if summaries > 1 {
		errs = append(errs, ErrMultipleSummaries)
	}
	return errors.Join(errs...)
}

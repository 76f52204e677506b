package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// EffectiveMonthly returns the values an item contributes to its section's
// total. Percentage items in savings sections derive their values from the
// item linked to the section; excluded items contribute nothing and negative
// items contribute with their sign flipped.
func EffectiveMonthly(b Budget, s Section, it Item) Monthly {
	var out Monthly
	if it.Excluded {
		return out
	}
	values := DisplayMonthly(b, s, it)
	for m, v := range values {
		if it.Negative {
			v = -v
		}
		out[m] = v
	}
	return out
}

// DisplayMonthly returns the values shown on an item's row, before the
// excluded and negative flags are applied.
func DisplayMonthly(b Budget, s Section, it Item) Monthly {
	p, ok := it.Percentage()
	if !ok || s.Type != Savings {
		return it.MonthlyValues
	}
	var out Monthly
	linked, _, found := b.MirroredItem(s.ID)
	if !found {
		return out
	}
	pct := decimal.NewFromFloat(p).Div(hundred)
	for m, v := range linked.MonthlyValues {
		out[m] = decimal.NewFromFloat(v).Mul(pct).InexactFloat64()
	}
	return out
}

// SectionTotals sums a section per month. Savings sections include the
// values mirrored from their linked item. Summary sections total nothing.
func SectionTotals(b Budget, s Section) Monthly {
	var acc [MonthsPerYear]decimal.Decimal
	for m := range acc {
		acc[m] = decimal.Zero
	}
	if s.Type == Summary {
		return Monthly{}
	}
	if s.Type == Savings {
		if linked, _, ok := b.MirroredItem(s.ID); ok {
			for m, v := range linked.MonthlyValues {
				acc[m] = acc[m].Add(decimal.NewFromFloat(v))
			}
		}
	}
	for _, it := range s.Items {
		for m, v := range EffectiveMonthly(b, s, it) {
			acc[m] = acc[m].Add(decimal.NewFromFloat(v))
		}
	}
	var out Monthly
	for m, d := range acc {
		out[m] = d.InexactFloat64()
	}
	return out
}

// Remaining is income minus expenses per month.
func Remaining(b Budget) Monthly {
	var income, expense [MonthsPerYear]decimal.Decimal
	for m := range income {
		income[m], expense[m] = decimal.Zero, decimal.Zero
	}
	for _, s := range b.Sections {
		if !s.Type.Aggregated() {
			continue
		}
		totals := SectionTotals(b, s)
		for m, v := range totals {
			if s.Type == Income {
				income[m] = income[m].Add(decimal.NewFromFloat(v))
			} else {
				expense[m] = expense[m].Add(decimal.NewFromFloat(v))
			}
		}
	}
	var out Monthly
	for m := range out {
		out[m] = income[m].Sub(expense[m]).InexactFloat64()
	}
	return out
}

// Sum adds all twelve months.
func (m Monthly) Sum() float64 {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}

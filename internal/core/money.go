// Package core provides the budget document model and amount handling.
//
// This file contains functions for parsing monetary amounts read back from
// spreadsheet cells, which may arrive as numbers or as locale-formatted text.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// AmountEpsilon is the tolerance under which two amounts are considered equal.
const AmountEpsilon = 0.001

// ParseAmount converts a cell's text into a number.
//
// It accepts dot (1234.5) and comma (1234,5) decimal separators, thousands
// separators in either convention ("1,234.50", "1.234,50"), spaces and a
// leading minus sign. A lone comma followed by exactly three digits groups
// thousands unless the integer part is zero. Formula text, NaN, infinities
// and anything else non-numeric is rejected.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34, true
//	ParseAmount("12,34")     -> 12.34, true
//	ParseAmount("1,234")     -> 1234, true
//	ParseAmount("0,125")     -> 0.125, true
//	ParseAmount("1.234,50")  -> 1234.5, true
//	ParseAmount("=B3*0.1")   -> 0, false
//	ParseAmount("NaN")       -> 0, false
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "=") {
		return 0, false
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Whichever separator comes last is the decimal one.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || groupsThousands(s, lastComma) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !IsFinite(f) {
		return 0, false
	}
	return f, true
}

func groupsThousands(s string, comma int) bool {
	whole := strings.TrimLeft(s[:comma], "+-")
	return len(s)-comma-1 == 3 && whole != "" && strings.TrimLeft(whole, "0") != ""
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// AmountsEqual compares two amounts within AmountEpsilon.
func AmountsEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= AmountEpsilon
}

// FormatAmount renders a number the way it is written into formulas: the
// shortest representation, never in exponent form.
func FormatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

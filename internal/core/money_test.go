package core

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.34", 12.34, true},
		{"12,34", 12.34, true},
		{" 1 234 ", 1234, true},
		{"1,234.50", 1234.5, true},
		{"1.234,50", 1234.5, true},
		{"1,234,567", 1234567, true},
		{"-15000", -15000, true},
		{"1,234", 1234, true},
		{"-1,500", -1500, true},
		{"0,125", 0.125, true},
		{"12,5", 12.5, true},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-Infinity", 0, false},
		{"Infinity", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"=SUM(B3:M3)", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok || (ok && !AmountsEqual(got, tt.want)) {
			t.Errorf("ParseAmount(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAmountsEqual(t *testing.T) {
	if !AmountsEqual(100, 100.001) {
		t.Error("difference of 0.001 must be equal")
	}
	if AmountsEqual(100, 100.0011) {
		t.Error("difference above 0.001 must differ")
	}
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{0.1: "0.1", 12.5: "12.5", 100: "100", 0.0001: "0.0001"}
	for in, want := range tests {
		if got := FormatAmount(in); got != want {
			t.Errorf("FormatAmount(%v) = %q, want %q", in, got, want)
		}
	}
}

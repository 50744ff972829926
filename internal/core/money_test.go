package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"-3.5", "-3.5", true},
		{"+2", "2", true},
		{"1.005", "1.01", true}, // half away from zero
		{"-1.005", "-1.01", true},
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"1e400000000", "", false},
		{"1e-400000000", "", false},
		{"-1e15", "", false},
		{"999999999999999.99", "999999999999999.99", true},
		{"1.5e3", "1500", true},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestAmountFromAny(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{json.Number("12.345"), "12.35"},
		{float64(-3.5), "-3.5"},
		{"7.1", "7.1"},
		{"n/a", "0"},
		{nil, "0"},
		{true, "0"},
		{[]any{1}, "0"},
		{json.Number("1e400000000"), "0"},
		{json.Number("-1e-400000000"), "0"},
		{float64(1e300), "0"},
		{int64(1 << 62), "0"},
	}
	for _, tc := range cases {
		got := AmountFromAny(tc.in)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%v expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("1000")); got != "1000.00" {
		t.Fatalf("got %q", got)
	}
	if got := FormatAmount(decimal.RequireFromString("-3.5")); got != "-3.50" {
		t.Fatalf("got %q", got)
	}
}

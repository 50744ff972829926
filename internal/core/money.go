// Package core provides money parsing and handling utilities.
//
// Amounts are kept as decimals and rounded to cents on every write, so
// sums never pick up binary floating point drift.
package core

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts must stay below MaxAmount in magnitude, and written exponents
// within [minExponent, maxExponent]. Rounding a decimal with an extreme
// exponent allocates a power of ten of that size.
var MaxAmount = decimal.New(1, 15)

const (
	minExponent = -32
	maxExponent = 15
)

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// boundedAmount rounds d to cents, or reports false when d is out of range.
func boundedAmount(d decimal.Decimal) (decimal.Decimal, bool) {
	if exp := d.Exponent(); exp < minExponent || exp > maxExponent {
		return decimal.Zero, false
	}
	if d.Abs().GreaterThanOrEqual(MaxAmount) {
		return decimal.Zero, false
	}
	return RoundCents(d), true
}

// parseDecimal parses a plain decimal string within the amount bounds.
func parseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return boundedAmount(d)
}

// ParseAmount converts a signed decimal string to a cent-rounded amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
//
// Examples:
//
//	ParseAmount("-3.5")   -> -3.5, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
//	ParseAmount("1e400")  -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	s = strings.TrimPrefix(s, "+")
	d, ok := parseDecimal(s)
	if !ok {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// AmountFromAny coerces a loosely typed value (as decoded from JSON or CSV)
// into an amount. Anything that is not a number or numeric string, or is
// out of range, is zero.
func AmountFromAny(v any) decimal.Decimal {
	switch val := v.(type) {
	case json.Number:
		if d, ok := parseDecimal(val.String()); ok {
			return d
		}
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return decimal.Zero
		}
		if d, ok := boundedAmount(decimal.NewFromFloat(val)); ok {
			return d
		}
	case int:
		if d, ok := boundedAmount(decimal.NewFromInt(int64(val))); ok {
			return d
		}
	case int64:
		if d, ok := boundedAmount(decimal.NewFromInt(val)); ok {
			return d
		}
	case decimal.Decimal:
		if d, ok := boundedAmount(val); ok {
			return d
		}
	case string:
		if d, err := ParseAmount(val); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// FormatAmount renders an amount with exactly two decimals, e.g. "1000.00".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

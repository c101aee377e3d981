// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer minor units (cents) so that sums over many
// small transactions never drift. Decimal arithmetic is used only where a
// fractional intermediate is unavoidable (parsing, scaling, quantities).
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

var (
	hundred     = decimal.NewFromInt(100)
	maxSafeUnit = decimal.NewFromInt((1<<63 - 1) / 100)
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	d, err := ParsePositiveDecimal(s)
	if err != nil {
		return 0, err
	}
	if d.GreaterThan(maxSafeUnit) {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0).IntPart()
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseMoney is ParseDecimalToCents returning a Money value.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// ParsePositiveDecimal parses an unsigned decimal number with either separator.
// Exponents, signs and grouping characters are rejected. Zero is rejected.
func ParsePositiveDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

func (m Money) IsNegative() bool { return m.Cents < 0 }

// Max returns the larger of m and o.
func (m Money) Max(o Money) Money {
	if o.Cents > m.Cents {
		return o
	}
	return m
}

// Mul scales by an integer factor.
func (m Money) Mul(n int64) Money { return Money{Cents: m.Cents * n} }

// Div divides by n rounding half away from zero. n must be non-zero.
func (m Money) Div(n int64) Money {
	return Money{Cents: decimal.NewFromInt(m.Cents).Div(decimal.NewFromInt(n)).Round(0).IntPart()}
}

// MulDecimal multiplies by a decimal quantity, rounding to whole cents.
func (m Money) MulDecimal(q decimal.Decimal) Money {
	return Money{Cents: decimal.NewFromInt(m.Cents).Mul(q).Round(0).IntPart()}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in major units as a float64 for display purposes.
// Note: Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the amount with two decimals and no currency symbol.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format renders the amount with a currency symbol and thousands separators,
// e.g. "$1,234.50" or "-$3.00".
func (m Money) Format(symbol string) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := decimal.New(cents, -2).StringFixed(2)
	intPart, frac, _ := strings.Cut(units, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := symbol + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

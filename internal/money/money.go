// Package money provides fixed-point amounts and percentages with two
// fractional digits.
//
// Amounts are stored as int64 minor units (cents) so that sums and
// comparisons are exact. Parsing, formatting and the one place that needs
// fractional arithmetic (applying a percentage) go through
// github.com/shopspring/decimal.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by Money and Percent.
const Scale = 2

var hundred = decimal.NewFromInt(100)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrTooManyDigits  = errors.New("more than two fractional digits")
	ErrInvalidPercent = errors.New("invalid percentage")
)

// Money is an amount in minor units (1 = 0.01).
type Money int64

// Zero is the zero amount.
const Zero Money = 0

// MaxAmount bounds the magnitude of any parsed amount (10 trillion in major
// units). Sums of up to several thousand such amounts still fit in int64.
const MaxAmount Money = 1_000_000_000_000_000

// InRange reports whether |m| <= MaxAmount.
func (m Money) InRange() bool { return m >= -MaxAmount && m <= MaxAmount }

// FromMinor returns the amount for the given number of minor units.
func FromMinor(units int64) Money {
	return Money(units)
}

// Parse reads a decimal string such as "33.34" or "-5". Values with more
// than two fractional digits are rejected rather than rounded.
func Parse(s string) (Money, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return fromDecimal(d, s)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimal rounds d half-up to the minor unit.
func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(Scale).Round(0).IntPart())
}

// Minor returns the amount in minor units.
func (m Money) Minor() int64 { return int64(m) }

// Decimal returns the amount as a decimal in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -Scale)
}

// String formats the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(Scale)
}

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsPositive() bool { return m > 0 }
func (m Money) IsNegative() bool { return m < 0 }

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// Sum adds up amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// MarshalJSON encodes the amount as a decimal string ("12.50").
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a decimal string or a JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(unquote(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Percent is a percentage in hundredths (10000 = 100.00%).
type Percent int64

// Hundred is 100.00%.
const Hundred Percent = 100 * 100

// ParsePercent reads a percentage such as "33.33" or "40".
func ParsePercent(s string) (Percent, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPercent, s)
	}
	m, err := fromDecimal(d, s)
	if err != nil {
		return 0, err
	}
	return Percent(m), nil
}

// MustParsePercent is ParsePercent for constants and tests.
func MustParsePercent(s string) Percent {
	p, err := ParsePercent(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Decimal returns the percentage as a decimal (60.00 for sixty percent).
func (p Percent) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -Scale)
}

func (p Percent) String() string {
	return p.Decimal().StringFixed(Scale)
}

// Of returns p percent of m, rounded half-up to the minor unit.
func (p Percent) Of(m Money) Money {
	return FromDecimal(m.Decimal().Mul(p.Decimal()).Div(hundred))
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	parsed, err := ParsePercent(unquote(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromString(s)
}

func fromDecimal(d decimal.Decimal, raw string) (Money, error) {
	if !d.Equal(d.Truncate(Scale)) {
		return 0, fmt.Errorf("%w: %q", ErrTooManyDigits, raw)
	}
	shifted := d.Shift(Scale)
	if !shifted.IsInteger() || shifted.Abs().GreaterThan(decimal.NewFromInt(int64(MaxAmount))) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return Money(shifted.IntPart()), nil
}

func unquote(data []byte) string {
	return strings.Trim(string(data), `"`)
}

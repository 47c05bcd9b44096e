// Package money provides locale-aware parsing of monetary strings and display
// formatting for the Brazilian real. Amounts are carried as shopspring/decimal
// values; go-money provides integer-cent arithmetic and the display formatter.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// BRL is the only currency the service reports in.
const BRL = "BRL"

// ErrParseFailure is returned when a cell cannot be coerced to an amount.
// Callers treat it as a missing value, never as an operation failure.
var ErrParseFailure = errors.New("unparseable monetary value")

var hundred = decimal.NewFromInt(100)

// displayFormatter renders cents as "1,234.56" (sign first, no grapheme).
// The currency symbol is prefixed separately so negative values read "R$ -300.00".
var displayFormatter = money.NewFormatter(2, ".", ",", "", "1")

// ParseLocaleAmount converts a locale-formatted amount to a signed decimal.
//
// A string containing a comma is read in the Brazilian convention: every
// period is a thousands separator and the comma is the decimal mark
// ("1.234,56" -> 1234.56). Without a comma the value is parsed as a plain
// decimal literal ("789.01" -> 789.01). Anything that is not a string, or that
// leaves non-numeric residue, yields ErrParseFailure.
func ParseLocaleAmount(v any) (decimal.Decimal, error) {
	s, ok := v.(string)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %T is not a string", ErrParseFailure, v)
	}

	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrParseFailure, s)
	}
	return d, nil
}

// Money represents a BRL amount in integer cents.
type Money struct {
	m *money.Money
}

// New creates a Money value from cents.
func New(amountCents int64) *Money {
	return &Money{m: money.New(amountCents, BRL)}
}

// NewFromDecimal rounds a decimal amount half away from zero to cents.
func NewFromDecimal(amount decimal.Decimal) *Money {
	return New(amount.Mul(hundred).Round(0).IntPart())
}

// Amount returns the amount in cents.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// IsPositive returns true if the amount is greater than zero
func (m *Money) IsPositive() bool {
	return m != nil && m.m != nil && m.m.IsPositive()
}

// IsNegative returns true if the amount is less than zero
func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// Abs returns the absolute value
func (m *Money) Abs() *Money {
	if m == nil || m.m == nil {
		return New(0)
	}
	return &Money{m: m.m.Absolute()}
}

// Negate returns the negated value
func (m *Money) Negate() *Money {
	if m == nil || m.m == nil {
		return New(0)
	}
	return &Money{m: m.m.Negative()}
}

// ToDecimal converts back to a decimal with two fractional digits.
func (m *Money) ToDecimal() decimal.Decimal {
	return decimal.New(m.Amount(), -2)
}

// Display returns the amount as shown to users, e.g. "R$ 1,234.56" or "R$ -300.00".
func (m *Money) Display() string {
	return "R$ " + displayFormatter.Format(m.Amount())
}

// Brazilian renders the amount the way Brazilian bank exports write it: "1.234,56".
func (m *Money) Brazilian() string {
	return money.NewFormatter(2, ",", ".", "", "1").Format(m.Amount())
}

// FormatBRL formats a decimal amount for display with two decimals and thousands grouping.
func FormatBRL(amount decimal.Decimal) string {
	return NewFromDecimal(amount).Display()
}

// FormatPercent formats a percentage with two decimals, e.g. "70.00%".
func FormatPercent(pct decimal.Decimal) string {
	return pct.StringFixed(2) + "%"
}

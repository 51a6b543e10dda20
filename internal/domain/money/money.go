// Package money converts between decimal currency strings and integer
// minor-unit (cents) amounts.
//
// All persisted and compared monetary values are integer cents; decimal
// strings exist only at the API boundary. The conversion goes through
// shopspring/decimal so no binary floating point touches the
// multiply/round/divide path.
//
// Example usage:
//
//	cents, err := money.ToCents("1500.00") // 150000
//	s := money.FromCents(150000)           // "1500.00"
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount indicates a monetary input that cannot be stored:
// non-numeric, out of range, or negative where the caller disallows it.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// MaxAmount is the largest representable major-unit amount (inclusive).
var maxAmount = decimal.RequireFromString("999999999.99")

var oneHundred = decimal.NewFromInt(100)

// ToCents parses a decimal amount string and returns the value in integer
// cents, rounding half-up to the nearest cent. Amounts whose absolute value
// exceeds 999,999,999.99 are rejected.
func ToCents(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Abs().GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %q exceeds maximum", ErrInvalidAmount, s)
	}
	// Round half-up at two fractional digits, then shift into cents.
	return d.Mul(oneHundred).Round(0).IntPart(), nil
}

// ToCentsNonNegative is ToCents with negative amounts rejected. Used for
// fields like running balances where the caller requires a non-negative
// value.
func ToCentsNonNegative(s string) (int64, error) {
	c, err := ToCents(s)
	if err != nil {
		return 0, err
	}
	if c < 0 {
		return 0, fmt.Errorf("%w: %q must not be negative", ErrInvalidAmount, s)
	}
	return c, nil
}

// FromCents formats integer cents as a decimal string with exactly two
// fractional digits, preserving sign.
func FromCents(c int64) string {
	return decimal.New(c, -2).StringFixed(2)
}

// NullableToCents converts an optional decimal string, propagating nil
// rather than erroring on absent values.
func NullableToCents(s *string) (*int64, error) {
	if s == nil {
		return nil, nil
	}
	c, err := ToCents(*s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// NullableFromCents formats an optional cents value, propagating nil.
func NullableFromCents(c *int64) *string {
	if c == nil {
		return nil
	}
	s := FromCents(*c)
	return &s
}

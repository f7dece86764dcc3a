// Package core provides money parsing and handling utilities.
//
// This file contains the Amount type and the parser used for user input.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a currency-agnostic, non-negative decimal value. It is encoded as
// a bare JSON number so the persisted layout stays {"amount": 12.5}.
type Amount struct {
	decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

const (
	// MaxAmountScale is the number of fractional digits an amount may carry.
	MaxAmountScale  = 8
	maxAmountDigits = 15
)

// MaxAmount is the largest amount accepted, 10^15.
var MaxAmount = Amount{decimal.New(1, maxAmountDigits)}

// NewAmount builds an Amount from a float. Intended for tests and constants;
// user input goes through ParseAmount.
func NewAmount(f float64) Amount {
	return Amount{decimal.NewFromFloat(f)}
}

// AmountFromDecimal wraps a decimal value.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{d}
}

// ParseAmount converts a decimal string to an Amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// surrounding whitespace. Signs and exponent notation are rejected; zero is
// allowed.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") || strings.ContainsAny(s, "eE") {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	a := Amount{d}
	if err := a.Validate(); err != nil {
		return Zero, err
	}
	return a, nil
}

// Validate rejects negative amounts, amounts above MaxAmount and amounts with
// more than MaxAmountScale fractional digits. The exponent is checked before
// any arithmetic so oversized inputs are never expanded.
func (a Amount) Validate() error {
	if a.IsNegative() {
		return ErrInvalidAmount
	}
	if a.Exponent() < -MaxAmountScale || a.Exponent() > maxAmountDigits {
		return ErrInvalidAmount
	}
	if a.Cmp(MaxAmount) > 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{a.Decimal.Add(b.Decimal)}
}

// Cmp compares a and b like decimal.Cmp.
func (a Amount) Cmp(b Amount) int {
	return a.Decimal.Cmp(b.Decimal)
}

// Equal reports numeric equality, so 1.50 equals 1.5.
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON decodes a number and rejects values Validate would refuse, so
// stored data cannot carry an amount that expands on the next encode.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	if err := (Amount{d}).Validate(); err != nil {
		return fmt.Errorf("amount %s: %w", b, err)
	}
	a.Decimal = d
	return nil
}

// Format renders the amount with two decimals for display.
func (a Amount) Format() string {
	return a.StringFixed(2)
}

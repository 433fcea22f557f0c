package money

import (
	"fmt"
)

// Money is an amount in integer minor units (cents) plus an ISO 4217 code.
//
// Invariants:
// - AmountCents is always an integer; no float arithmetic anywhere.
// - Two Money values may only be combined when their currencies match.
type Money struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

func New(amountCents int64, currency string) (Money, error) {
	if err := ValidateCurrency(currency); err != nil {
		return Money{}, err
	}
	return Money{AmountCents: amountCents, Currency: currency}, nil
}

// ValidateCurrency accepts three uppercase ASCII letters (ISO 4217 shape).
// It does not maintain a currency whitelist; listings define their currency.
func ValidateCurrency(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("currency must be a 3-letter ISO 4217 code, got %q", code)
	}
	for i := 0; i < 3; i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return fmt.Errorf("currency must be uppercase letters, got %q", code)
		}
	}
	return nil
}

func (m Money) IsZero() bool { return m.AmountCents == 0 }

// MulQty returns the line total for quantity units at this unit price.
func (m Money) MulQty(qty int) (Money, error) {
	if qty <= 0 {
		return Money{}, fmt.Errorf("quantity must be positive, got %d", qty)
	}
	return Money{AmountCents: m.AmountCents * int64(qty), Currency: m.Currency}, nil
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{AmountCents: m.AmountCents + other.AmountCents, Currency: m.Currency}, nil
}

// Neg returns the reversing (debit) amount.
func (m Money) Neg() Money {
	return Money{AmountCents: -m.AmountCents, Currency: m.Currency}
}

// PercentOff computes a percent discount on cents using floor division.
func PercentOff(amountCents int64, percent int64) int64 {
	if amountCents <= 0 || percent <= 0 {
		return 0
	}
	if percent >= 100 {
		return amountCents
	}
	return amountCents * percent / 100
}

// RoundPercent computes round(amountCents * percent / 100) with half-up
// rounding. Used for restocking adjustments on returns.
func RoundPercent(amountCents int64, percent int64) int64 {
	if amountCents <= 0 || percent <= 0 {
		return 0
	}
	return (amountCents*percent + 50) / 100
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.AmountCents, m.Currency)
}

package discounts

import "time"

// Amounts are expressed in minor units (cents) using int64.

// CodeDiscount defines a promotion a buyer can attach to a cart by code.
// Percent-off and amount-off may both be set; checkout combines them.
type CodeDiscount struct {
	ID   string `json:"id" db:"id"`
	Code string `json:"code" db:"code"`

	PercentOff     int64 `json:"percent_off" db:"percent_off"`
	AmountOffCents int64 `json:"amount_off_cents" db:"amount_off_cents"`

	// Currency is optional; empty means the discount applies to any cart.
	Currency string `json:"currency,omitempty" db:"currency"`

	// Effective window for the promotion.
	EffectiveFrom time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty" db:"effective_to"`

	Status Status `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// InEffect reports whether the discount may be applied at the given time.
func (d CodeDiscount) InEffect(at time.Time) bool {
	if d.Status != StatusActive {
		return false
	}
	if at.Before(d.EffectiveFrom) {
		return false
	}
	if d.EffectiveTo != nil && !at.Before(*d.EffectiveTo) {
		return false
	}
	return true
}

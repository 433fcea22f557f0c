package escrow

import "time"

// Hold is the escrow record for funds held against one order.
//
// Invariants:
// - At most one active hold per order at any time.
// - A hold transitions active -> released or active -> refunded, never back.
// - Expiry is computed, not stored: created_at + 30 days defines auto-release
//   eligibility; days remaining is a derived view.
type Hold struct {
	ID      string `json:"id" db:"id"`
	OrderID string `json:"order_id" db:"order_id"`

	Status HoldStatus `json:"hold_status" db:"hold_status"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty" db:"released_at"`
	RefundedAt *time.Time `json:"refunded_at,omitempty" db:"refunded_at"`
}

type HoldStatus string

const (
	HoldActive   HoldStatus = "active"
	HoldReleased HoldStatus = "released"
	HoldRefunded HoldStatus = "refunded"
)

// ReleaseWindow is how long funds stay in escrow before auto-release.
const ReleaseWindow = 30 * 24 * time.Hour

// ExpiresAt is when the hold becomes eligible for auto-release.
func (h Hold) ExpiresAt() time.Time {
	return h.CreatedAt.Add(ReleaseWindow)
}

// DaysRemaining until auto-release, rounded up, floored at zero.
func (h Hold) DaysRemaining(now time.Time) int {
	left := h.ExpiresAt().Sub(now)
	if left <= 0 {
		return 0
	}
	days := int((left + 24*time.Hour - 1) / (24 * time.Hour))
	return days
}

// HoldView joins a hold with the order amounts dashboards need.
type HoldView struct {
	Hold

	SellerID    string `json:"seller_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`

	DaysRemainingView int       `json:"days_remaining"`
	ExpiresAtView     time.Time `json:"expires_at"`
}

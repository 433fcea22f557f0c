package reporting

import "time"

// FinanceSummaryRequest requests aggregated money metrics for one seller.
type FinanceSummaryRequest struct {
	SellerID string `json:"seller_id"`
	Currency string `json:"currency"`
}

// FinanceSummary aggregates a seller's realized and provisional positions.
// Realized balance comes from completed ledger entries; escrow balance from
// active holds joined to orders. The two are intentionally separate sources.
type FinanceSummary struct {
	SellerID string `json:"seller_id"`
	Currency string `json:"currency"`

	// RealizedBalanceCents is the sum of completed ledger entries (payouts
	// minus completed reversals).
	RealizedBalanceCents int64 `json:"realized_balance_cents"`

	// EscrowBalanceCents is money still held against active holds.
	EscrowBalanceCents int64 `json:"escrow_balance_cents"`

	ActiveHolds int `json:"active_holds"`

	// NextReleaseAt is the earliest auto-release time among active holds.
	NextReleaseAt *time.Time `json:"next_release_at,omitempty"`
}

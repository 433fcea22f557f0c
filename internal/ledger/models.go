package ledger

import "time"

// Entry is an immutable, append-only financial ledger record.
//
// Invariants:
// - Entries are never updated or deleted after insertion; only Status may
//   transition pending -> completed|failed. Amount and type are immutable.
// - AmountCents is signed: positive = credit to the seller, negative = debit.
// - Seller balance = sum of completed entries grouped by currency. Escrow
//   balance is NOT derived from the ledger; it comes from active payment holds
//   (ledger entries are realized movements, holds are provisional custody).
type Entry struct {
	ID       string `json:"id" db:"id"`
	SellerID string `json:"seller_id" db:"seller_id"`
	OrderID  string `json:"order_id" db:"order_id"`

	// RefundID links reversing entries back to their refund flow. Empty for
	// payout credits.
	RefundID string `json:"refund_id,omitempty" db:"refund_id"`

	Type TransactionType `json:"transaction_type" db:"transaction_type"`

	AmountCents int64  `json:"amount_cents" db:"amount_cents"`
	Currency    string `json:"currency" db:"currency"`

	Status EntryStatus `json:"status" db:"status"`

	// Description is a short human-readable note for dashboards.
	Description string `json:"description,omitempty" db:"description"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type TransactionType string

const (
	TypePayout          TransactionType = "payout"
	TypeRefund          TransactionType = "refund"
	TypeRefundInitiated TransactionType = "refund_initiated"
	TypeReturnRequest   TransactionType = "return_request"
	TypeReturnApproved  TransactionType = "return_approved"
	TypeRefundCompleted TransactionType = "refund_completed"
)

// IsReversing reports whether the type represents money moving away from the
// seller as part of a refund/return flow.
func (t TransactionType) IsReversing() bool {
	switch t {
	case TypeRefund, TypeRefundInitiated, TypeReturnApproved, TypeRefundCompleted:
		return true
	default:
		return false
	}
}

type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusCompleted EntryStatus = "completed"
	StatusFailed    EntryStatus = "failed"
)

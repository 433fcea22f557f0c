package refunds

import "time"

// Refund covers both direct refunds and the return workflow. Direct refunds
// take the short path pending -> refunded; returns walk return_requested ->
// return_approved -> refunded, with return_rejected as the rejection exit.
//
// AmountCents is the requested reversal and never exceeds the originating
// order's amount. For approved returns the realized amount is recomputed from
// RestockPercentage at approval and again at completion; the refund row keeps
// the requested amount.
type Refund struct {
	ID        string `json:"id" db:"id"`
	OrderID   string `json:"order_id" db:"order_id"`
	PaymentID string `json:"payment_id,omitempty" db:"payment_id"`
	BuyerID   string `json:"buyer_id" db:"buyer_id"`
	SellerID  string `json:"seller_id" db:"seller_id"`

	AmountCents int64  `json:"amount_cents" db:"amount_cents"`
	Currency    string `json:"currency" db:"currency"`

	Type   Type   `json:"refund_type" db:"refund_type"`
	Status Status `json:"refund_status" db:"refund_status"`

	Reason      string `json:"reason,omitempty" db:"reason"`
	Description string `json:"description,omitempty" db:"description"`

	// RMANumber is assigned on buyer-initiated flows so the physical return
	// can be matched to this record.
	RMANumber string `json:"rma_number,omitempty" db:"rma_number"`

	// RestockPercentage is set at approval; 100 means a full refund of the
	// requested amount.
	RestockPercentage int64 `json:"restock_percentage" db:"restock_percentage"`

	// InitiationEntryID is the pending ledger debit written when the refund
	// was created; the direct path completes by flipping it to completed.
	InitiationEntryID string `json:"-" db:"initiation_entry_id"`

	RequestedAt time.Time  `json:"requested_at" db:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty" db:"refunded_at"`
}

type Type string

const (
	TypeFull        Type = "full"
	TypePartial     Type = "partial"
	TypeStoreCredit Type = "store_credit"
)

type Status string

const (
	StatusPending         Status = "pending"
	StatusReturnRequested Status = "return_requested"
	StatusReturnApproved  Status = "return_approved"
	StatusReturnRejected  Status = "return_rejected"
	StatusRefunded        Status = "refunded"
	StatusFailed          Status = "failed"
	StatusCanceled        Status = "canceled"
)

var validNext = map[Status][]Status{
	StatusPending:         {StatusRefunded, StatusFailed, StatusCanceled},
	StatusReturnRequested: {StatusReturnApproved, StatusReturnRejected, StatusCanceled},
	StatusReturnApproved:  {StatusRefunded, StatusFailed},
}

func CanTransition(from, to Status) bool {
	for _, s := range validNext[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(s Status) bool {
	return len(validNext[s]) == 0
}

// ReturnWindow is how long after order creation a buyer may request a return.
const ReturnWindow = 30 * 24 * time.Hour

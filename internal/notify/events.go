package notify

import (
	"encoding/json"
	"time"
)

const (
	EventCartItemAdded   = "CartItemAdded"
	EventCartItemRemoved = "CartItemRemoved"
	EventCartCleared     = "CartCleared"
	EventOrdersPlaced    = "OrdersPlaced"
	EventReturnRequested = "ReturnRequested"
	EventReturnRejected  = "ReturnRejected"
)

// Envelope is the wire shape of every published event. Payload carries the
// event-specific body.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type CartEvent struct {
	BuyerID   string `json:"buyer_id"`
	ListingID string `json:"listing_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

type OrdersPlacedEvent struct {
	BuyerID    string   `json:"buyer_id"`
	OrderIDs   []string `json:"order_ids"`
	TotalCents int64    `json:"total_cents"`
	Currency   string   `json:"currency"`
}

type ReturnEvent struct {
	RefundID string `json:"refund_id"`
	OrderID  string `json:"order_id"`
	BuyerID  string `json:"buyer_id"`
	SellerID string `json:"seller_id"`
	Reason   string `json:"reason,omitempty"`
}

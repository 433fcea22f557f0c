package orders

import "time"

// Order is one seller's fulfillment of one listing/quantity within a checkout.
//
// Invariants:
// - AmountCents is fixed at creation time (unit price x quantity at that
//   moment) and never recomputed from the listing afterward.
// - Orders are never hard-deleted; lifecycle is status-based only.
type Order struct {
	ID        string `json:"id" db:"id"`
	BuyerID   string `json:"buyer_id" db:"buyer_id"`
	SellerID  string `json:"seller_id" db:"seller_id"`
	ListingID string `json:"listing_id" db:"listing_id"`

	Quantity    int    `json:"quantity" db:"quantity"`
	AmountCents int64  `json:"amount_cents" db:"amount_cents"`
	Currency    string `json:"currency" db:"currency"`

	Status         Status         `json:"status" db:"status"`
	DeliveryStatus DeliveryStatus `json:"delivery_status" db:"delivery_status"`
	PayoutStatus   PayoutStatus   `json:"payout_status" db:"payout_status"`

	ShippingAddress string `json:"shipping_address" db:"shipping_address"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCanceled   Status = "canceled"
	StatusReturned   Status = "returned"
)

type DeliveryStatus string

const (
	DeliveryNotShipped DeliveryStatus = "not_shipped"
	DeliveryInTransit  DeliveryStatus = "in_transit"
	DeliveryDelivered  DeliveryStatus = "delivered"
)

type PayoutStatus string

const (
	PayoutInEscrow   PayoutStatus = "in_escrow"
	PayoutProcessing PayoutStatus = "processing"
	PayoutPaid       PayoutStatus = "paid"
)

package checkout

import (
	"time"

	"marketplace-platform/internal/money"
	"marketplace-platform/internal/orders"
)

// CartItem freezes the listing's unit price at add-to-cart time. Checkout
// charges this price even if the listing price changed since.
type CartItem struct {
	ID        string `json:"id" db:"id"`
	BuyerID   string `json:"buyer_id" db:"buyer_id"`
	ListingID string `json:"listing_id" db:"listing_id"`
	SellerID  string `json:"seller_id" db:"seller_id"`

	Quantity       int    `json:"quantity" db:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents" db:"unit_price_cents"`
	Currency       string `json:"currency" db:"currency"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (i CartItem) LineTotal() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// Discount is attached at the cart level. Percent-off and amount-off may
// combine; the combined reduction never pushes the total below zero.
type Discount struct {
	Code           string     `json:"code" db:"code"`
	PercentOff     int64      `json:"percent_off" db:"percent_off"`
	AmountOffCents int64      `json:"amount_off_cents" db:"amount_off_cents"`
	Active         bool       `json:"active" db:"active"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty" db:"expires_at"`
}

func (d Discount) Usable(now time.Time) bool {
	if !d.Active {
		return false
	}
	return d.ExpiresAt == nil || d.ExpiresAt.After(now)
}

// ReductionCents computes the combined discount against a subtotal.
// Percent-off uses floor division; the result is capped at the subtotal.
func (d Discount) ReductionCents(subtotalCents int64) int64 {
	cut := money.PercentOff(subtotalCents, d.PercentOff) + d.AmountOffCents
	if cut > subtotalCents {
		return subtotalCents
	}
	if cut < 0 {
		return 0
	}
	return cut
}

type Cart struct {
	BuyerID  string     `json:"buyer_id"`
	Items    []CartItem `json:"items"`
	Discount *Discount  `json:"discount,omitempty"`
}

func (c Cart) SubtotalCents() int64 {
	var sum int64
	for _, i := range c.Items {
		sum += i.LineTotal()
	}
	return sum
}

// Receipt is the checkout result. Per-order amounts stay at full line price;
// the discount is reported at the cart level, not apportioned into orders, so
// summed order amounts may exceed TotalCents by exactly DiscountCents.
type Receipt struct {
	Orders        []orders.Order `json:"orders"`
	SubtotalCents int64          `json:"subtotal_cents"`
	DiscountCents int64          `json:"discount_cents"`
	TotalCents    int64          `json:"total_cents"`
	Currency      string         `json:"currency"`
}

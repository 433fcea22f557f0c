package inventory

import "time"

// Reservation is a short-lived hold on stock quantity tied to a cart item or
// order.
//
// Invariant: available = quantity_available - sum(quantity of reservations
// where status = reserved). Confirmed reservations leave the subtraction;
// their stock is permanently committed via the order's own decrement.
type Reservation struct {
	ID        string `json:"id" db:"id"`
	ListingID string `json:"listing_id" db:"listing_id"`

	// OwnerRef is the cart item or order this reservation belongs to.
	OwnerRef string `json:"owner_ref" db:"owner_ref"`

	Quantity int `json:"quantity" db:"quantity"`

	Status ReservationStatus `json:"status" db:"status"`

	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "reserved"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationReleased  ReservationStatus = "released"
)

// TTL is how long a reservation holds stock before the sweeper releases it.
const TTL = 30 * time.Minute

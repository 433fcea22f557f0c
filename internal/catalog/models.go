package catalog

import "time"

// Listing is the subset of the catalog the money path consumes: price,
// currency, approval status and stock. Catalog browsing/search lives outside
// this service.
type Listing struct {
	ID       string `json:"id" db:"id"`
	SellerID string `json:"seller_id" db:"seller_id"`
	Title    string `json:"title" db:"title"`

	PriceCents int64  `json:"price_cents" db:"price_cents"`
	Currency   string `json:"currency" db:"currency"`

	Status ListingStatus `json:"status" db:"status"`

	SupplyCapacity SupplyCapacity `json:"supply_capacity" db:"supply_capacity"`

	// QuantityAvailable is total stock on hand for limited listings.
	// available-for-reservation = QuantityAvailable - ReservedQuantity.
	QuantityAvailable int `json:"quantity_available" db:"quantity_available"`
	ReservedQuantity  int `json:"reserved_quantity" db:"reserved_quantity"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ListingStatus string

const (
	ListingStatusDraft     ListingStatus = "draft"
	ListingStatusPending   ListingStatus = "pending"
	ListingStatusApproved  ListingStatus = "approved"
	ListingStatusSuspended ListingStatus = "suspended"
)

type SupplyCapacity string

const (
	SupplyLimited   SupplyCapacity = "limited"
	SupplyUnlimited SupplyCapacity = "unlimited"
)

// Sellable reports whether checkout may create orders against this listing.
func (l Listing) Sellable() bool {
	return l.Status == ListingStatusApproved && l.PriceCents > 0 && l.Currency != ""
}

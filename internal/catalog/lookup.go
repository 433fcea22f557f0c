package catalog

import (
	"context"
	"database/sql"
	"errors"
)

// Lookup is the narrow read interface the money path consumes.
type Lookup interface {
	GetListing(ctx context.Context, listingID string) (Listing, bool, error)
}

type PostgresRepo struct {
	DB *sql.DB
}

func (r *PostgresRepo) GetListing(ctx context.Context, listingID string) (Listing, bool, error) {
	const q = `
SELECT id, seller_id, title, price_cents, currency, status, supply_capacity,
       quantity_available, reserved_quantity, created_at, updated_at
FROM listings
WHERE id = $1
`
	var l Listing
	err := r.DB.QueryRowContext(ctx, q, listingID).Scan(
		&l.ID,
		&l.SellerID,
		&l.Title,
		&l.PriceCents,
		&l.Currency,
		&l.Status,
		&l.SupplyCapacity,
		&l.QuantityAvailable,
		&l.ReservedQuantity,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Listing{}, false, nil
		}
		return Listing{}, false, err
	}
	return l, true, nil
}

package checkout

import (
	"context"
	"database/sql"
	"errors"

	"marketplace-platform/internal/apperr"
	"marketplace-platform/internal/orders"
	"marketplace-platform/pkg/utils"
)

// PostgresStore keeps carts in cart_items plus a one-row-per-buyer
// cart_discounts table.
type PostgresStore struct {
	DB *sql.DB
}

func (s *PostgresStore) AddItem(ctx context.Context, item CartItem) error {
	const q = `
INSERT INTO cart_items (id, buyer_id, listing_id, seller_id, quantity, unit_price_cents, currency, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := s.DB.ExecContext(ctx, q,
		item.ID, item.BuyerID, item.ListingID, item.SellerID,
		item.Quantity, item.UnitPriceCents, item.Currency, item.CreatedAt,
	)
	return err
}

func (s *PostgresStore) RemoveItem(ctx context.Context, buyerID, itemID string) (CartItem, bool, error) {
	const q = `
DELETE FROM cart_items
WHERE id = $1 AND buyer_id = $2
RETURNING id, buyer_id, listing_id, seller_id, quantity, unit_price_cents, currency, created_at
`
	var item CartItem
	err := s.DB.QueryRowContext(ctx, q, itemID, buyerID).Scan(
		&item.ID, &item.BuyerID, &item.ListingID, &item.SellerID,
		&item.Quantity, &item.UnitPriceCents, &item.Currency, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CartItem{}, false, nil
		}
		return CartItem{}, false, err
	}
	return item, true, nil
}

func (s *PostgresStore) GetCart(ctx context.Context, buyerID string) (Cart, error) {
	const itemsQ = `
SELECT id, buyer_id, listing_id, seller_id, quantity, unit_price_cents, currency, created_at
FROM cart_items
WHERE buyer_id = $1
ORDER BY created_at
`
	rows, err := s.DB.QueryContext(ctx, itemsQ, buyerID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	cart := Cart{BuyerID: buyerID}
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(
			&item.ID, &item.BuyerID, &item.ListingID, &item.SellerID,
			&item.Quantity, &item.UnitPriceCents, &item.Currency, &item.CreatedAt,
		); err != nil {
			return Cart{}, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return Cart{}, err
	}

	const discountQ = `
SELECT code, percent_off, amount_off_cents, active, expires_at
FROM cart_discounts
WHERE buyer_id = $1
`
	var d Discount
	err = s.DB.QueryRowContext(ctx, discountQ, buyerID).Scan(
		&d.Code, &d.PercentOff, &d.AmountOffCents, &d.Active, &d.ExpiresAt,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Cart{}, err
	default:
		cart.Discount = &d
	}
	return cart, nil
}

func (s *PostgresStore) SetDiscount(ctx context.Context, buyerID string, d Discount) error {
	const q = `
INSERT INTO cart_discounts (buyer_id, code, percent_off, amount_off_cents, active, expires_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (buyer_id) DO UPDATE SET
  code = EXCLUDED.code,
  percent_off = EXCLUDED.percent_off,
  amount_off_cents = EXCLUDED.amount_off_cents,
  active = EXCLUDED.active,
  expires_at = EXCLUDED.expires_at
`
	_, err := s.DB.ExecContext(ctx, q, buyerID, d.Code, d.PercentOff, d.AmountOffCents, d.Active, d.ExpiresAt)
	return err
}

func (s *PostgresStore) ClearCart(ctx context.Context, buyerID string) ([]CartItem, error) {
	var removed []CartItem
	err := utils.WithTx(ctx, s.DB, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
DELETE FROM cart_items
WHERE buyer_id = $1
RETURNING id, buyer_id, listing_id, seller_id, quantity, unit_price_cents, currency, created_at
`, buyerID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var item CartItem
			if err := rows.Scan(
				&item.ID, &item.BuyerID, &item.ListingID, &item.SellerID,
				&item.Quantity, &item.UnitPriceCents, &item.Currency, &item.CreatedAt,
			); err != nil {
				return err
			}
			removed = append(removed, item)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM cart_discounts WHERE buyer_id = $1`, buyerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *PostgresStore) Finalize(ctx context.Context, buyerID string, lines []Line) error {
	itemIDs := make([]string, len(lines))
	for i, ln := range lines {
		itemIDs[i] = ln.CartItemID
	}
	return utils.WithTx(ctx, s.DB, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		// Delete the exact cart rows this checkout was priced from, before any
		// write. Concurrent checkouts of the same cart serialize on these row
		// locks; whichever commits second finds the rows gone and rolls back.
		res, err := tx.ExecContext(ctx, `
DELETE FROM cart_items
WHERE buyer_id = $1 AND id = ANY($2)
`, buyerID, itemIDs)
		if err != nil {
			return err
		}
		deleted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if deleted != int64(len(lines)) {
			return apperr.Conflictf("cart changed while checking out")
		}

		for _, ln := range lines {
			if err := orders.InsertTx(ctx, tx, ln.Order); err != nil {
				return err
			}
			if ln.DecrementStock {
				_, err := tx.ExecContext(ctx, `
UPDATE listings
SET quantity_available = GREATEST(quantity_available - $2, 0), updated_at = NOW()
WHERE id = $1
`, ln.Order.ListingID, ln.Order.Quantity)
				if err != nil {
					return err
				}
			}
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM cart_discounts WHERE buyer_id = $1`, buyerID)
		return err
	})
}

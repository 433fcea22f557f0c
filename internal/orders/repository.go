package orders

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo persists orders.
//
// Assumed schema:
//
//	orders (
//	  id uuid primary key,
//	  buyer_id uuid not null,
//	  seller_id uuid not null,
//	  listing_id uuid not null,
//	  quantity int not null,
//	  amount_cents bigint not null,
//	  currency char(3) not null,
//	  status text not null,
//	  delivery_status text not null,
//	  payout_status text not null,
//	  shipping_address text not null,
//	  created_at timestamptz not null,
//	  updated_at timestamptz not null
//	)
type PostgresRepo struct {
	DB *sql.DB
}

const orderColumns = `
id, buyer_id, seller_id, listing_id, quantity, amount_cents, currency,
status, delivery_status, payout_status, shipping_address, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&o.SellerID,
		&o.ListingID,
		&o.Quantity,
		&o.AmountCents,
		&o.Currency,
		&o.Status,
		&o.DeliveryStatus,
		&o.PayoutStatus,
		&o.ShippingAddress,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

func (r *PostgresRepo) GetOrder(ctx context.Context, id string) (Order, bool, error) {
	o, err := scanOrder(r.DB.QueryRowContext(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, false, nil
		}
		return Order{}, false, err
	}
	return o, true, nil
}

func (r *PostgresRepo) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]Order, error) {
	return r.list(ctx, `SELECT`+orderColumns+` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC LIMIT $2`, buyerID, limit)
}

func (r *PostgresRepo) ListBySeller(ctx context.Context, sellerID string, limit int) ([]Order, error) {
	return r.list(ctx, `SELECT`+orderColumns+` FROM orders WHERE seller_id = $1 ORDER BY created_at DESC LIMIT $2`, sellerID, limit)
}

func (r *PostgresRepo) list(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// TransitionStatus performs a guarded status update. The WHERE clause repeats
// the from-status so two concurrent writers cannot both succeed; callers must
// also check CanTransition before calling.
func (r *PostgresRepo) TransitionStatus(ctx context.Context, id string, from, to Status, delivery DeliveryStatus) (bool, error) {
	const q = `
UPDATE orders
SET status = $3,
    delivery_status = CASE WHEN $4 <> '' THEN $4 ELSE delivery_status END,
    updated_at = NOW()
WHERE id = $1 AND status = $2
`
	res, err := r.DB.ExecContext(ctx, q, id, from, to, string(delivery))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// InsertTx writes an order inside an open transaction; checkout composes this
// with stock decrements and cart clearing.
func InsertTx(ctx context.Context, tx *sql.Tx, o Order) error {
	const q = `
INSERT INTO orders (
  id, buyer_id, seller_id, listing_id, quantity, amount_cents, currency,
  status, delivery_status, payout_status, shipping_address, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)
`
	_, err := tx.ExecContext(ctx, q,
		o.ID,
		o.BuyerID,
		o.SellerID,
		o.ListingID,
		o.Quantity,
		o.AmountCents,
		o.Currency,
		o.Status,
		o.DeliveryStatus,
		o.PayoutStatus,
		o.ShippingAddress,
		o.CreatedAt,
		o.UpdatedAt,
	)
	return err
}

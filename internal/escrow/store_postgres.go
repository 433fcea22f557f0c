package escrow

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"marketplace-platform/internal/ledger"
	"marketplace-platform/pkg/utils"
)

// PostgresStore persists holds in the payment_holds table.
//
// Assumed schema:
//
//	payment_holds (
//	  id uuid primary key,
//	  order_id uuid not null references orders(id),
//	  hold_status text not null,
//	  created_at timestamptz not null,
//	  released_at timestamptz,
//	  refunded_at timestamptz
//	)
//	CREATE UNIQUE INDEX payment_holds_one_active
//	  ON payment_holds(order_id) WHERE hold_status = 'active';
//
// The partial unique index enforces hold exclusivity even under concurrent
// inserts; OpenHold relies on ON CONFLICT to detect the loser.
type PostgresStore struct {
	DB *sql.DB
}

func (s *PostgresStore) OpenHold(ctx context.Context, h Hold) (bool, error) {
	const q = `
INSERT INTO payment_holds (id, order_id, hold_status, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (order_id) WHERE hold_status = 'active' DO NOTHING
`
	res, err := s.DB.ExecContext(ctx, q, h.ID, h.OrderID, h.Status, h.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PostgresStore) ActiveHoldByOrder(ctx context.Context, orderID string) (Hold, bool, error) {
	const q = `
SELECT id, order_id, hold_status, created_at, released_at, refunded_at
FROM payment_holds
WHERE order_id = $1 AND hold_status = 'active'
`
	var h Hold
	err := s.DB.QueryRowContext(ctx, q, orderID).Scan(
		&h.ID,
		&h.OrderID,
		&h.Status,
		&h.CreatedAt,
		&h.ReleasedAt,
		&h.RefundedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Hold{}, false, nil
		}
		return Hold{}, false, err
	}
	return h, true, nil
}

func (s *PostgresStore) Release(ctx context.Context, holdID string, releasedAt time.Time, credit ledger.Entry) (bool, error) {
	ok := false
	err := utils.WithTx(ctx, s.DB, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE payment_holds
SET hold_status = 'released', released_at = $2
WHERE id = $1 AND hold_status = 'active'
`, holdID, releasedAt)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return nil // lost the race; nothing written
		}

		if err := ledger.InsertTx(ctx, tx, credit); err != nil {
			return err
		}
		ok = true
		return nil
	})
	return ok, err
}

func (s *PostgresStore) SellerEscrowBalance(ctx context.Context, sellerID, currency string) (int64, error) {
	const q = `
SELECT COALESCE(SUM(o.amount_cents), 0)
FROM payment_holds h
JOIN orders o ON o.id = h.order_id
WHERE h.hold_status = 'active' AND o.seller_id = $1 AND o.currency = $2
`
	var sum int64
	if err := s.DB.QueryRowContext(ctx, q, sellerID, currency).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

func (s *PostgresStore) SellerActiveHolds(ctx context.Context, sellerID, currency string) ([]HoldView, error) {
	const q = `
SELECT h.id, h.order_id, h.hold_status, h.created_at, h.released_at, h.refunded_at,
       o.seller_id, o.amount_cents, o.currency
FROM payment_holds h
JOIN orders o ON o.id = h.order_id
WHERE h.hold_status = 'active' AND o.seller_id = $1 AND o.currency = $2
ORDER BY h.created_at
`
	return s.queryViews(ctx, q, sellerID, currency)
}

func (s *PostgresStore) ReleaseEligible(ctx context.Context, cutoff time.Time, limit int) ([]HoldView, error) {
	const q = `
SELECT h.id, h.order_id, h.hold_status, h.created_at, h.released_at, h.refunded_at,
       o.seller_id, o.amount_cents, o.currency
FROM payment_holds h
JOIN orders o ON o.id = h.order_id
WHERE h.hold_status = 'active' AND h.created_at < $1
ORDER BY h.created_at
LIMIT $2
`
	return s.queryViews(ctx, q, cutoff, limit)
}

func (s *PostgresStore) queryViews(ctx context.Context, q string, args ...any) ([]HoldView, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HoldView
	for rows.Next() {
		var v HoldView
		if err := rows.Scan(
			&v.ID,
			&v.OrderID,
			&v.Status,
			&v.CreatedAt,
			&v.ReleasedAt,
			&v.RefundedAt,
			&v.SellerID,
			&v.AmountCents,
			&v.Currency,
		); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

package refunds

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"marketplace-platform/internal/ledger"
	"marketplace-platform/pkg/utils"
)

const refundColumns = `
id, order_id, COALESCE(payment_id, ''), buyer_id, seller_id,
amount_cents, currency, refund_type, refund_status,
COALESCE(reason, ''), COALESCE(description, ''), COALESCE(rma_number, ''),
restock_percentage, COALESCE(initiation_entry_id, ''),
requested_at, processed_at, refunded_at`

type PostgresStore struct {
	DB *sql.DB
}

func scanRefund(row interface{ Scan(dest ...any) error }) (Refund, error) {
	var r Refund
	err := row.Scan(
		&r.ID, &r.OrderID, &r.PaymentID, &r.BuyerID, &r.SellerID,
		&r.AmountCents, &r.Currency, &r.Type, &r.Status,
		&r.Reason, &r.Description, &r.RMANumber,
		&r.RestockPercentage, &r.InitiationEntryID,
		&r.RequestedAt, &r.ProcessedAt, &r.RefundedAt,
	)
	return r, err
}

func (s *PostgresStore) Create(ctx context.Context, r Refund, entry ledger.Entry, refundHold bool) (bool, error) {
	created := false
	err := utils.WithTx(ctx, s.DB, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		// serialize refund creation per order on the order row, then check
		// for an in-flight refund
		var lockedID string
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM orders WHERE id = $1 FOR UPDATE`, r.OrderID).Scan(&lockedID); err != nil {
			return err
		}
		var existing int
		err := tx.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM refunds
WHERE order_id = $1
  AND refund_status NOT IN ('refunded','return_rejected','failed','canceled')
`, r.OrderID).Scan(&existing)
		if err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO refunds (
  id, order_id, payment_id, buyer_id, seller_id,
  amount_cents, currency, refund_type, refund_status,
  reason, description, rma_number, restock_percentage,
  initiation_entry_id, requested_at
) VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,NULLIF($10,''),NULLIF($11,''),NULLIF($12,''),$13,NULLIF($14,''),$15)
`,
			r.ID, r.OrderID, r.PaymentID, r.BuyerID, r.SellerID,
			r.AmountCents, r.Currency, r.Type, r.Status,
			r.Reason, r.Description, r.RMANumber, r.RestockPercentage,
			r.InitiationEntryID, r.RequestedAt,
		)
		if err != nil {
			return err
		}
		if err := ledger.InsertTx(ctx, tx, entry); err != nil {
			return err
		}
		if refundHold {
			if err := refundHoldTx(ctx, tx, r.OrderID, r.RequestedAt); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	return created, err
}

func (s *PostgresStore) Get(ctx context.Context, refundID string) (Refund, bool, error) {
	r, err := scanRefund(s.DB.QueryRowContext(ctx,
		`SELECT `+refundColumns+` FROM refunds WHERE id = $1`, refundID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Refund{}, false, nil
		}
		return Refund{}, false, err
	}
	return r, true, nil
}

func (s *PostgresStore) ListByOrder(ctx context.Context, orderID string) ([]Refund, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+refundColumns+` FROM refunds WHERE order_id = $1 ORDER BY requested_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Refund
	for rows.Next() {
		r, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Approve(ctx context.Context, refundID string, processedAt time.Time, restockPercentage int64, entry ledger.Entry) (bool, error) {
	done := false
	err := utils.WithTx(ctx, s.DB, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE refunds
SET refund_status = 'return_approved', processed_at = $2, restock_percentage = $3
WHERE id = $1 AND refund_status = 'return_requested'
`, refundID, processedAt, restockPercentage)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return nil
		}
		if err := ledger.InsertTx(ctx, tx, entry); err != nil {
			return err
		}
		done = true
		return nil
	})
	return done, err
}

func (s *PostgresStore) Reject(ctx context.Context, refundID string, processedAt time.Time) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
UPDATE refunds
SET refund_status = 'return_rejected', processed_at = $2
WHERE id = $1 AND refund_status = 'return_requested'
`, refundID, processedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PostgresStore) Complete(ctx context.Context, refundID string, from Status, refundedAt time.Time, fx CompleteEffects) (bool, error) {
	done := false
	err := utils.WithTx(ctx, s.DB, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		var orderID string
		err := tx.QueryRowContext(ctx, `
UPDATE refunds
SET refund_status = 'refunded', refunded_at = $2
WHERE id = $1 AND refund_status = $3
RETURNING order_id
`, refundID, refundedAt, from).Scan(&orderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		if fx.Entry != nil {
			if err := ledger.InsertTx(ctx, tx, *fx.Entry); err != nil {
				return err
			}
		}
		if fx.MarkEntryID != "" {
			_, err := tx.ExecContext(ctx, `
UPDATE financial_ledger
SET status = 'completed'
WHERE id = $1 AND status = 'pending'
`, fx.MarkEntryID)
			if err != nil {
				return err
			}
		}
		if fx.RefundHold {
			if err := refundHoldTx(ctx, tx, orderID, refundedAt); err != nil {
				return err
			}
		}
		if fx.OrderReturned {
			_, err := tx.ExecContext(ctx, `
UPDATE orders
SET status = 'returned', updated_at = $2
WHERE id = $1 AND status = 'delivered'
`, orderID, refundedAt)
			if err != nil {
				return err
			}
		}
		done = true
		return nil
	})
	return done, err
}

// refundHoldTx flips an order's active hold to refunded. No-op when the hold
// was already released or refunded.
func refundHoldTx(ctx context.Context, tx *sql.Tx, orderID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
UPDATE payment_holds
SET hold_status = 'refunded', refunded_at = $2
WHERE order_id = $1 AND hold_status = 'active'
`, orderID, at)
	return err
}

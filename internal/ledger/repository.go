package ledger

import (
	"context"
	"database/sql"
)

// PostgresRepo persists ledger entries in the financial_ledger table.
//
// Assumed schema:
//
//	financial_ledger (
//	  id uuid primary key,
//	  seller_id uuid not null,
//	  order_id uuid not null,
//	  refund_id uuid,
//	  transaction_type text not null,
//	  amount_cents bigint not null,
//	  currency char(3) not null,
//	  status text not null,
//	  description text,
//	  created_at timestamptz not null
//	)
//
// The table is INSERT-only; a trigger should reject UPDATE outside the status
// column and all DELETEs.
type PostgresRepo struct {
	DB *sql.DB
}

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	return InsertTx(ctx, r.DB, e)
}

// InsertTx appends an entry using any execer (DB or open transaction). Money
// transactions in sibling packages compose this into their own tx so a hold
// transition and its ledger entry commit or roll back together.
func InsertTx(ctx context.Context, execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, e Entry) error {
	const q = `
INSERT INTO financial_ledger (
  id, seller_id, order_id, refund_id, transaction_type, amount_cents, currency, status, description, created_at
) VALUES (
  $1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9,$10
)
`
	_, err := execer.ExecContext(ctx, q,
		e.ID,
		e.SellerID,
		e.OrderID,
		e.RefundID,
		e.Type,
		e.AmountCents,
		e.Currency,
		e.Status,
		e.Description,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) MarkStatus(ctx context.Context, id string, from, to EntryStatus) (bool, error) {
	const q = `
UPDATE financial_ledger
SET status = $3
WHERE id = $1 AND status = $2
`
	res, err := r.DB.ExecContext(ctx, q, id, from, to)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepo) SumCompletedBySeller(ctx context.Context, sellerID, currency string) (int64, error) {
	const q = `
SELECT COALESCE(SUM(amount_cents), 0)
FROM financial_ledger
WHERE seller_id = $1 AND currency = $2 AND status = 'completed'
`
	var sum int64
	if err := r.DB.QueryRowContext(ctx, q, sellerID, currency).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *PostgresRepo) SumCompletedReversalsByOrder(ctx context.Context, orderID string) (int64, error) {
	const q = `
SELECT COALESCE(SUM(amount_cents), 0)
FROM financial_ledger
WHERE order_id = $1
  AND status = 'completed'
  AND transaction_type IN ('refund', 'refund_initiated', 'return_approved', 'refund_completed')
`
	var sum int64
	if err := r.DB.QueryRowContext(ctx, q, orderID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *PostgresRepo) ListBySeller(ctx context.Context, sellerID, currency string, limit int) ([]Entry, error) {
	const q = `
SELECT id, seller_id, order_id, COALESCE(refund_id, ''), transaction_type, amount_cents, currency, status, COALESCE(description, ''), created_at
FROM financial_ledger
WHERE seller_id = $1 AND currency = $2
ORDER BY created_at DESC
LIMIT $3
`
	rows, err := r.DB.QueryContext(ctx, q, sellerID, currency, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID,
			&e.SellerID,
			&e.OrderID,
			&e.RefundID,
			&e.Type,
			&e.AmountCents,
			&e.Currency,
			&e.Status,
			&e.Description,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

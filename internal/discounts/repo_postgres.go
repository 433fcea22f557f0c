package discounts

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PostgresRepo struct {
	DB *sql.DB
}

func (r *PostgresRepo) FindByCode(ctx context.Context, code string, at time.Time) (CodeDiscount, bool, error) {
	const q = `
SELECT id, code, percent_off, amount_off_cents, COALESCE(currency, ''),
       effective_from, effective_to, status, created_at, updated_at
FROM discount_codes
WHERE code = $1
  AND status = 'active'
  AND effective_from <= $2
  AND (effective_to IS NULL OR effective_to > $2)
ORDER BY effective_from DESC
LIMIT 1
`
	var d CodeDiscount
	err := r.DB.QueryRowContext(ctx, q, code, at).Scan(
		&d.ID, &d.Code, &d.PercentOff, &d.AmountOffCents, &d.Currency,
		&d.EffectiveFrom, &d.EffectiveTo, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CodeDiscount{}, false, nil
		}
		return CodeDiscount{}, false, err
	}
	return d, true, nil
}

package audit

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	DB *sql.DB
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, type, actor_user_id, actor_role, ip_address,
  order_id, refund_id, hold_id, message, metadata, created_at
) VALUES ($1,$2,NULLIF($3,''),NULLIF($4,''),NULLIF($5,''),NULLIF($6,''),NULLIF($7,''),NULLIF($8,''),NULLIF($9,''),NULLIF($10,''),$11)
`
	_, err := r.DB.ExecContext(ctx, q,
		e.ID, e.Type, e.ActorUserID, e.ActorRole, e.IPAddress,
		e.OrderID, e.RefundID, e.HoldID, e.Message, e.Metadata, e.CreatedAt,
	)
	return err
}

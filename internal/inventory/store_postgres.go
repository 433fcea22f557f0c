package inventory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"marketplace-platform/pkg/utils"
)

// PostgresStore implements Store against the listings and
// inventory_reservations tables.
//
// Assumed schema:
//
//	inventory_reservations (
//	  id uuid primary key,
//	  listing_id uuid not null references listings(id),
//	  owner_ref text not null,
//	  quantity int not null,
//	  status text not null,
//	  expires_at timestamptz not null,
//	  created_at timestamptz not null
//	)
type PostgresStore struct {
	DB *sql.DB
}

func (s *PostgresStore) Reserve(ctx context.Context, r Reservation) (bool, int, error) {
	ok := false
	available := 0

	err := utils.WithTx(ctx, s.DB, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		// Lock the listing row to serialize concurrent availability checks.
		var qty, reserved int
		err := tx.QueryRowContext(ctx, `
SELECT quantity_available, reserved_quantity
FROM listings
WHERE id = $1
FOR UPDATE
`, r.ListingID).Scan(&qty, &reserved)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil // ok=false, available=0
			}
			return err
		}

		available = qty - reserved
		if available < 0 {
			available = 0
		}
		if r.Quantity > available {
			return nil // rollback, nothing written
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO inventory_reservations (id, listing_id, owner_ref, quantity, status, expires_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, r.ID, r.ListingID, r.OwnerRef, r.Quantity, r.Status, r.ExpiresAt, r.CreatedAt); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE listings SET reserved_quantity = reserved_quantity + $2, updated_at = NOW()
WHERE id = $1
`, r.ListingID, r.Quantity); err != nil {
			return err
		}

		ok = true
		return nil
	})
	return ok, available, err
}

func (s *PostgresStore) Release(ctx context.Context, reservationID string) (bool, error) {
	return s.transition(ctx, reservationID, ReservationReleased)
}

func (s *PostgresStore) Confirm(ctx context.Context, reservationID string) (bool, error) {
	return s.transition(ctx, reservationID, ReservationConfirmed)
}

// transition moves a reserved reservation to its terminal status and returns
// the held quantity to the listing's reserved counter. The status guard in the
// UPDATE keeps two concurrent transitions from both succeeding.
func (s *PostgresStore) transition(ctx context.Context, reservationID string, to ReservationStatus) (bool, error) {
	ok := false

	err := utils.WithTx(ctx, s.DB, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		var listingID string
		var qty int
		err := tx.QueryRowContext(ctx, `
UPDATE inventory_reservations
SET status = $2
WHERE id = $1 AND status = 'reserved'
RETURNING listing_id, quantity
`, reservationID, to).Scan(&listingID, &qty)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE listings SET reserved_quantity = GREATEST(reserved_quantity - $2, 0), updated_at = NOW()
WHERE id = $1
`, listingID, qty); err != nil {
			return err
		}

		ok = true
		return nil
	})
	return ok, err
}

func (s *PostgresStore) Expired(ctx context.Context, now time.Time, limit int) ([]Reservation, error) {
	const q = `
SELECT id, listing_id, owner_ref, quantity, status, expires_at, created_at
FROM inventory_reservations
WHERE status = 'reserved' AND expires_at < $1
ORDER BY expires_at
LIMIT $2
`
	return s.queryReservations(ctx, q, now, limit)
}

func (s *PostgresStore) ByOwner(ctx context.Context, ownerRef string) ([]Reservation, error) {
	const q = `
SELECT id, listing_id, owner_ref, quantity, status, expires_at, created_at
FROM inventory_reservations
WHERE owner_ref = $1
ORDER BY created_at
`
	return s.queryReservations(ctx, q, ownerRef)
}

func (s *PostgresStore) queryReservations(ctx context.Context, q string, args ...any) ([]Reservation, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.ListingID, &r.OwnerRef, &r.Quantity, &r.Status, &r.ExpiresAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

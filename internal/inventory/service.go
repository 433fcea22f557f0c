package inventory

import (
	"context"
	"time"

	"marketplace-platform/internal/apperr"

	"github.com/google/uuid"
)

// Store is the transactional persistence contract. Each method is one atomic
// unit: the Postgres implementation runs it inside a single transaction with
// the listing row locked, so two concurrent reservations cannot both pass the
// availability check.
type Store interface {
	// Reserve inserts the reservation and bumps the listing's reserved counter
	// if quantity <= available. ok=false with no write when stock is short.
	Reserve(ctx context.Context, r Reservation) (ok bool, available int, err error)

	// Release marks a reserved reservation released and decrements the
	// listing's reserved counter (floored at zero). ok=false when the
	// reservation is not currently reserved.
	Release(ctx context.Context, reservationID string) (ok bool, err error)

	// Confirm marks a reserved reservation confirmed and decrements the
	// reserved counter; the stock commitment now lives on the order.
	Confirm(ctx context.Context, reservationID string) (ok bool, err error)

	// Expired lists reservations with status=reserved and expires_at < now.
	Expired(ctx context.Context, now time.Time, limit int) ([]Reservation, error)

	// ByOwner lists reservations belonging to a cart item or order.
	ByOwner(ctx context.Context, ownerRef string) ([]Reservation, error)
}

type Service struct {
	store Store
	clock func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, clock: time.Now}
}

func (s *Service) Reserve(ctx context.Context, listingID string, quantity int, ownerRef string) (Reservation, error) {
	if listingID == "" || ownerRef == "" {
		return Reservation{}, apperr.InvalidStatef("listing_id and owner_ref required")
	}
	if quantity <= 0 {
		return Reservation{}, apperr.InvalidStatef("quantity must be positive, got %d", quantity)
	}

	now := s.clock().UTC()
	r := Reservation{
		ID:        uuid.NewString(),
		ListingID: listingID,
		OwnerRef:  ownerRef,
		Quantity:  quantity,
		Status:    ReservationReserved,
		ExpiresAt: now.Add(TTL),
		CreatedAt: now,
	}

	ok, available, err := s.store.Reserve(ctx, r)
	if err != nil {
		return Reservation{}, err
	}
	if !ok {
		return Reservation{}, apperr.InvalidStatef("insufficient stock for listing %s: requested %d, available %d", listingID, quantity, available)
	}
	return r, nil
}

func (s *Service) Release(ctx context.Context, reservationID string) error {
	if reservationID == "" {
		return apperr.InvalidStatef("reservation_id required")
	}
	ok, err := s.store.Release(ctx, reservationID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflictf("reservation %s is not in reserved state", reservationID)
	}
	return nil
}

func (s *Service) Confirm(ctx context.Context, reservationID string) error {
	if reservationID == "" {
		return apperr.InvalidStatef("reservation_id required")
	}
	ok, err := s.store.Confirm(ctx, reservationID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflictf("reservation %s is not in reserved state", reservationID)
	}
	return nil
}

// ReleaseOwner releases all still-reserved reservations for a cart item or
// order, e.g. when a cart is abandoned or an order is canceled.
func (s *Service) ReleaseOwner(ctx context.Context, ownerRef string) error {
	if ownerRef == "" {
		return apperr.InvalidStatef("owner_ref required")
	}
	rs, err := s.store.ByOwner(ctx, ownerRef)
	if err != nil {
		return err
	}
	for _, r := range rs {
		if r.Status != ReservationReserved {
			continue
		}
		if _, err := s.store.Release(ctx, r.ID); err != nil {
			return err
		}
	}
	return nil
}

// ConfirmOwner confirms all still-reserved reservations for a cart item or
// order once checkout has committed the stock on the order itself.
func (s *Service) ConfirmOwner(ctx context.Context, ownerRef string) error {
	if ownerRef == "" {
		return apperr.InvalidStatef("owner_ref required")
	}
	rs, err := s.store.ByOwner(ctx, ownerRef)
	if err != nil {
		return err
	}
	for _, r := range rs {
		if r.Status != ReservationReserved {
			continue
		}
		if _, err := s.store.Confirm(ctx, r.ID); err != nil {
			return err
		}
	}
	return nil
}

// SweepExpired releases reservations whose expiry has passed. Run by the
// sweeper process; returns how many were released.
func (s *Service) SweepExpired(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	expired, err := s.store.Expired(ctx, s.clock().UTC(), limit)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, r := range expired {
		ok, err := s.store.Release(ctx, r.ID)
		if err != nil {
			return released, err
		}
		// another sweeper instance may have released it already; not an error
		if ok {
			released++
		}
	}
	return released, nil
}

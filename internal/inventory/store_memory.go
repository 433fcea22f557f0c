package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketplace-platform/internal/catalog"
)

// MemoryStore backs tests. It shares a catalog.MemoryRepo so reserved counters
// stay consistent with what checkout sees.
type MemoryStore struct {
	mu           sync.Mutex
	Listings     *catalog.MemoryRepo
	reservations map[string]Reservation
}

func NewMemoryStore(listings *catalog.MemoryRepo) *MemoryStore {
	return &MemoryStore{
		Listings:     listings,
		reservations: make(map[string]Reservation),
	}
}

func (s *MemoryStore) Reserve(ctx context.Context, r Reservation) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok, err := s.Listings.GetListing(ctx, r.ListingID)
	if err != nil || !ok {
		return false, 0, err
	}

	available := l.QuantityAvailable - l.ReservedQuantity
	if available < 0 {
		available = 0
	}
	if r.Quantity > available {
		return false, available, nil
	}

	s.reservations[r.ID] = r
	s.Listings.AdjustReserved(r.ListingID, r.Quantity)
	return true, available, nil
}

func (s *MemoryStore) Release(ctx context.Context, reservationID string) (bool, error) {
	return s.transition(ctx, reservationID, ReservationReleased)
}

func (s *MemoryStore) Confirm(ctx context.Context, reservationID string) (bool, error) {
	return s.transition(ctx, reservationID, ReservationConfirmed)
}

func (s *MemoryStore) transition(ctx context.Context, reservationID string, to ReservationStatus) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[reservationID]
	if !ok || r.Status != ReservationReserved {
		return false, nil
	}
	r.Status = to
	s.reservations[reservationID] = r
	s.Listings.AdjustReserved(r.ListingID, -r.Quantity)
	return true, nil
}

func (s *MemoryStore) Expired(ctx context.Context, now time.Time, limit int) ([]Reservation, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Reservation
	for _, r := range s.reservations {
		if r.Status == ReservationReserved && r.ExpiresAt.Before(now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ByOwner(ctx context.Context, ownerRef string) ([]Reservation, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Reservation
	for _, r := range s.reservations {
		if r.OwnerRef == ownerRef {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Get returns a reservation for assertions in tests.
func (s *MemoryStore) Get(reservationID string) (Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[reservationID]
	return r, ok
}

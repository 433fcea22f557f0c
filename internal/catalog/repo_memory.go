package catalog

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory listing store for tests. Inventory and checkout
// memory stores share one instance so stock and reservation counters stay
// consistent across packages.
type MemoryRepo struct {
	mu       sync.Mutex
	listings map[string]Listing
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{listings: make(map[string]Listing)}
}

func (r *MemoryRepo) Put(l Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[l.ID] = l
}

func (r *MemoryRepo) GetListing(ctx context.Context, listingID string) (Listing, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[listingID]
	return l, ok, nil
}

// AdjustStock applies a delta to quantity_available, floored at zero.
func (r *MemoryRepo) AdjustStock(listingID string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[listingID]
	if !ok {
		return
	}
	l.QuantityAvailable += delta
	if l.QuantityAvailable < 0 {
		l.QuantityAvailable = 0
	}
	r.listings[listingID] = l
}

// AdjustReserved applies a delta to reserved_quantity, floored at zero.
func (r *MemoryRepo) AdjustReserved(listingID string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[listingID]
	if !ok {
		return
	}
	l.ReservedQuantity += delta
	if l.ReservedQuantity < 0 {
		l.ReservedQuantity = 0
	}
	r.listings[listingID] = l
}

package ledger

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory repository useful for tests and early development.
// Escrow/refund memory stores share one instance so cross-package flows can be
// exercised without Postgres.
//
// NOTE: This is not intended for production; use PostgresRepo.
type MemoryRepo struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e Entry) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryRepo) MarkStatus(ctx context.Context, id string, from, to EntryStatus) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id && r.entries[i].Status == from {
			r.entries[i].Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) SumCompletedBySeller(ctx context.Context, sellerID, currency string) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, e := range r.entries {
		if e.SellerID == sellerID && e.Currency == currency && e.Status == StatusCompleted {
			sum += e.AmountCents
		}
	}
	return sum, nil
}

func (r *MemoryRepo) SumCompletedReversalsByOrder(ctx context.Context, orderID string) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, e := range r.entries {
		if e.OrderID == orderID && e.Status == StatusCompleted && e.Type.IsReversing() {
			sum += e.AmountCents
		}
	}
	return sum, nil
}

func (r *MemoryRepo) ListBySeller(ctx context.Context, sellerID, currency string, limit int) ([]Entry, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if e.SellerID == sellerID && e.Currency == currency {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Entries returns a copy of everything appended, for assertions in tests.
func (r *MemoryRepo) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ByOrder returns all entries for one order, for assertions in tests.
func (r *MemoryRepo) ByOrder(orderID string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out
}

package orders

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo backs tests; checkout/escrow/refund memory stores share one
// instance so a full flow can run without Postgres.
type MemoryRepo struct {
	mu     sync.Mutex
	orders map[string]Order
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{orders: make(map[string]Order)}
}

func (r *MemoryRepo) Put(o Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
}

func (r *MemoryRepo) GetOrder(ctx context.Context, id string) (Order, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	return o, ok, nil
}

func (r *MemoryRepo) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]Order, error) {
	return r.listWhere(func(o Order) bool { return o.BuyerID == buyerID }, limit)
}

func (r *MemoryRepo) ListBySeller(ctx context.Context, sellerID string, limit int) ([]Order, error) {
	return r.listWhere(func(o Order) bool { return o.SellerID == sellerID }, limit)
}

func (r *MemoryRepo) listWhere(match func(Order) bool, limit int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Order
	for _, o := range r.orders {
		if match(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) TransitionStatus(ctx context.Context, id string, from, to Status, delivery DeliveryStatus) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if delivery != "" {
		o.DeliveryStatus = delivery
	}
	o.UpdatedAt = time.Now().UTC()
	r.orders[id] = o
	return true, nil
}

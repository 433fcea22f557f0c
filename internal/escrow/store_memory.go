package escrow

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketplace-platform/internal/ledger"
	"marketplace-platform/internal/orders"
)

// MemoryStore shares the orders and ledger memory repos so tests can run the
// pay -> deliver -> release flow end to end without Postgres.
type MemoryStore struct {
	mu     sync.Mutex
	holds  map[string]Hold
	orders *orders.MemoryRepo
	ledger *ledger.MemoryRepo
}

func NewMemoryStore(ordersRepo *orders.MemoryRepo, ledgerRepo *ledger.MemoryRepo) *MemoryStore {
	return &MemoryStore{
		holds:  make(map[string]Hold),
		orders: ordersRepo,
		ledger: ledgerRepo,
	}
}

func (s *MemoryStore) OpenHold(ctx context.Context, h Hold) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.holds {
		if existing.OrderID == h.OrderID && existing.Status == HoldActive {
			return false, nil
		}
	}
	s.holds[h.ID] = h
	return true, nil
}

func (s *MemoryStore) ActiveHoldByOrder(ctx context.Context, orderID string) (Hold, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.holds {
		if h.OrderID == orderID && h.Status == HoldActive {
			return h, true, nil
		}
	}
	return Hold{}, false, nil
}

func (s *MemoryStore) Release(ctx context.Context, holdID string, releasedAt time.Time, credit ledger.Entry) (bool, error) {
	s.mu.Lock()
	h, ok := s.holds[holdID]
	if !ok || h.Status != HoldActive {
		s.mu.Unlock()
		return false, nil
	}
	h.Status = HoldReleased
	h.ReleasedAt = &releasedAt
	s.holds[holdID] = h
	s.mu.Unlock()

	if err := s.ledger.Append(ctx, credit); err != nil {
		return false, err
	}
	return true, nil
}

// RefundHold flips an active hold to refunded. The refunds memory store calls
// this where the Postgres store would run the guarded update in its own
// transaction.
func (s *MemoryStore) RefundHold(orderID string, refundedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, h := range s.holds {
		if h.OrderID == orderID && h.Status == HoldActive {
			h.Status = HoldRefunded
			h.RefundedAt = &refundedAt
			s.holds[id] = h
			return true
		}
	}
	return false
}

func (s *MemoryStore) SellerEscrowBalance(ctx context.Context, sellerID, currency string) (int64, error) {
	views, err := s.activeViews(ctx, func(v HoldView) bool {
		return v.SellerID == sellerID && v.Currency == currency
	})
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, v := range views {
		sum += v.AmountCents
	}
	return sum, nil
}

func (s *MemoryStore) SellerActiveHolds(ctx context.Context, sellerID, currency string) ([]HoldView, error) {
	return s.activeViews(ctx, func(v HoldView) bool {
		return v.SellerID == sellerID && v.Currency == currency
	})
}

func (s *MemoryStore) ReleaseEligible(ctx context.Context, cutoff time.Time, limit int) ([]HoldView, error) {
	views, err := s.activeViews(ctx, func(v HoldView) bool {
		return v.CreatedAt.Before(cutoff)
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	return views, nil
}

func (s *MemoryStore) activeViews(ctx context.Context, match func(HoldView) bool) ([]HoldView, error) {
	s.mu.Lock()
	active := make([]Hold, 0, len(s.holds))
	for _, h := range s.holds {
		if h.Status == HoldActive {
			active = append(active, h)
		}
	}
	s.mu.Unlock()

	var out []HoldView
	for _, h := range active {
		o, ok, err := s.orders.GetOrder(ctx, h.OrderID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		v := HoldView{
			Hold:        h,
			SellerID:    o.SellerID,
			AmountCents: o.AmountCents,
			Currency:    o.Currency,
		}
		if match(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Get returns a hold by id, for assertions in tests.
func (s *MemoryStore) Get(holdID string) (Hold, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[holdID]
	return h, ok
}

package refunds

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketplace-platform/internal/escrow"
	"marketplace-platform/internal/ledger"
	"marketplace-platform/internal/orders"
)

// MemoryStore shares the ledger, orders and escrow memory stores so refund
// flows can be exercised end to end without Postgres.
type MemoryStore struct {
	mu      sync.Mutex
	refunds map[string]Refund

	ledger *ledger.MemoryRepo
	orders *orders.MemoryRepo
	holds  *escrow.MemoryStore
}

func NewMemoryStore(ledgerRepo *ledger.MemoryRepo, ordersRepo *orders.MemoryRepo, holds *escrow.MemoryStore) *MemoryStore {
	return &MemoryStore{
		refunds: make(map[string]Refund),
		ledger:  ledgerRepo,
		orders:  ordersRepo,
		holds:   holds,
	}
}

func (s *MemoryStore) Create(ctx context.Context, r Refund, entry ledger.Entry, refundHold bool) (bool, error) {
	s.mu.Lock()
	for _, existing := range s.refunds {
		if existing.OrderID == r.OrderID && !IsTerminal(existing.Status) {
			s.mu.Unlock()
			return false, nil
		}
	}
	s.refunds[r.ID] = r
	s.mu.Unlock()

	if err := s.ledger.Append(ctx, entry); err != nil {
		return false, err
	}
	if refundHold {
		s.holds.RefundHold(r.OrderID, r.RequestedAt)
	}
	return true, nil
}

func (s *MemoryStore) Get(ctx context.Context, refundID string) (Refund, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refunds[refundID]
	return r, ok, nil
}

func (s *MemoryStore) ListByOrder(ctx context.Context, orderID string) ([]Refund, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Refund
	for _, r := range s.refunds {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (s *MemoryStore) Approve(ctx context.Context, refundID string, processedAt time.Time, restockPercentage int64, entry ledger.Entry) (bool, error) {
	s.mu.Lock()
	r, ok := s.refunds[refundID]
	if !ok || r.Status != StatusReturnRequested {
		s.mu.Unlock()
		return false, nil
	}
	r.Status = StatusReturnApproved
	r.ProcessedAt = &processedAt
	r.RestockPercentage = restockPercentage
	s.refunds[refundID] = r
	s.mu.Unlock()

	if err := s.ledger.Append(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Reject(ctx context.Context, refundID string, processedAt time.Time) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refunds[refundID]
	if !ok || r.Status != StatusReturnRequested {
		return false, nil
	}
	r.Status = StatusReturnRejected
	r.ProcessedAt = &processedAt
	s.refunds[refundID] = r
	return true, nil
}

func (s *MemoryStore) Complete(ctx context.Context, refundID string, from Status, refundedAt time.Time, fx CompleteEffects) (bool, error) {
	s.mu.Lock()
	r, ok := s.refunds[refundID]
	if !ok || r.Status != from {
		s.mu.Unlock()
		return false, nil
	}
	r.Status = StatusRefunded
	r.RefundedAt = &refundedAt
	s.refunds[refundID] = r
	orderID := r.OrderID
	s.mu.Unlock()

	if fx.Entry != nil {
		if err := s.ledger.Append(ctx, *fx.Entry); err != nil {
			return false, err
		}
	}
	if fx.MarkEntryID != "" {
		if _, err := s.ledger.MarkStatus(ctx, fx.MarkEntryID, ledger.StatusPending, ledger.StatusCompleted); err != nil {
			return false, err
		}
	}
	if fx.RefundHold {
		s.holds.RefundHold(orderID, refundedAt)
	}
	if fx.OrderReturned {
		if _, err := s.orders.TransitionStatus(ctx, orderID, orders.StatusDelivered, orders.StatusReturned, ""); err != nil {
			return false, err
		}
	}
	return true, nil
}

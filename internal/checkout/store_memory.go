package checkout

import (
	"context"
	"errors"
	"sort"
	"sync"

	"marketplace-platform/internal/apperr"
	"marketplace-platform/internal/catalog"
	"marketplace-platform/internal/orders"
)

// MemoryStore shares the catalog and orders memory repos so a full checkout
// can be exercised without Postgres. FailOnCartItem forces Finalize to fail
// when it reaches that line, before applying anything, to test atomicity.
type MemoryStore struct {
	mu        sync.Mutex
	items     map[string]CartItem
	discounts map[string]Discount

	listings *catalog.MemoryRepo
	orders   *orders.MemoryRepo

	FailOnCartItem string
}

var errInjected = errors.New("injected finalize failure")

func NewMemoryStore(listings *catalog.MemoryRepo, ordersRepo *orders.MemoryRepo) *MemoryStore {
	return &MemoryStore{
		items:     make(map[string]CartItem),
		discounts: make(map[string]Discount),
		listings:  listings,
		orders:    ordersRepo,
	}
}

func (s *MemoryStore) AddItem(ctx context.Context, item CartItem) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) RemoveItem(ctx context.Context, buyerID, itemID string) (CartItem, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok || item.BuyerID != buyerID {
		return CartItem{}, false, nil
	}
	delete(s.items, itemID)
	return item, true, nil
}

func (s *MemoryStore) GetCart(ctx context.Context, buyerID string) (Cart, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := Cart{BuyerID: buyerID}
	for _, item := range s.items {
		if item.BuyerID == buyerID {
			cart.Items = append(cart.Items, item)
		}
	}
	sort.Slice(cart.Items, func(i, j int) bool {
		if cart.Items[i].CreatedAt.Equal(cart.Items[j].CreatedAt) {
			return cart.Items[i].ID < cart.Items[j].ID
		}
		return cart.Items[i].CreatedAt.Before(cart.Items[j].CreatedAt)
	})
	if d, ok := s.discounts[buyerID]; ok {
		cart.Discount = &d
	}
	return cart, nil
}

func (s *MemoryStore) SetDiscount(ctx context.Context, buyerID string, d Discount) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discounts[buyerID] = d
	return nil
}

func (s *MemoryStore) ClearCart(ctx context.Context, buyerID string) ([]CartItem, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(buyerID), nil
}

func (s *MemoryStore) clearLocked(buyerID string) []CartItem {
	var removed []CartItem
	for id, item := range s.items {
		if item.BuyerID == buyerID {
			removed = append(removed, item)
			delete(s.items, id)
		}
	}
	delete(s.discounts, buyerID)
	return removed
}

func (s *MemoryStore) Finalize(ctx context.Context, buyerID string, lines []Line) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	// fail before any mutation so a failed checkout leaves no trace
	for _, ln := range lines {
		if s.FailOnCartItem != "" && ln.CartItemID == s.FailOnCartItem {
			return errInjected
		}
		// every priced cart row must still exist, matching the Postgres
		// store's RowsAffected guard against concurrent checkouts
		item, ok := s.items[ln.CartItemID]
		if !ok || item.BuyerID != buyerID {
			return apperr.Conflictf("cart changed while checking out")
		}
	}

	for _, ln := range lines {
		s.orders.Put(ln.Order)
		if ln.DecrementStock {
			s.listings.AdjustStock(ln.Order.ListingID, -ln.Order.Quantity)
		}
	}
	s.clearLocked(buyerID)
	return nil
}

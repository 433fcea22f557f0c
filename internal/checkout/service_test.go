package checkout

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"marketplace-platform/internal/apperr"
	"marketplace-platform/internal/buyers"
	"marketplace-platform/internal/catalog"
	"marketplace-platform/internal/inventory"
	"marketplace-platform/internal/notify"
	"marketplace-platform/internal/orders"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Service
	store    *MemoryStore
	listings *catalog.MemoryRepo
	orders   *orders.MemoryRepo
	profile  *buyers.MemoryRepo
	sink     *notify.Recorder
	inv      *inventory.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	listings := catalog.NewMemoryRepo()
	ordersRepo := orders.NewMemoryRepo()
	store := NewMemoryStore(listings, ordersRepo)
	profile := buyers.NewMemoryRepo()
	sink := notify.NewRecorder()
	inv := inventory.NewService(inventory.NewMemoryStore(listings))
	svc := NewService(store, listings, profile, inv, sink, slog.Default())
	return &fixture{svc: svc, store: store, listings: listings, orders: ordersRepo, profile: profile, sink: sink, inv: inv}
}

func (f *fixture) seedListing(id string, priceCents int64, capacity catalog.SupplyCapacity, stock int) {
	f.listings.Put(catalog.Listing{
		ID:                id,
		SellerID:          "s1",
		Title:             "Widget",
		PriceCents:        priceCents,
		Currency:          "NGN",
		Status:            catalog.ListingStatusApproved,
		SupplyCapacity:    capacity,
		QuantityAvailable: stock,
		CreatedAt:         time.Now().UTC(),
	})
}

func (f *fixture) seedBuyer(id string) {
	f.profile.PutAccount(buyers.Account{ID: id, Email: id + "@example.com", Name: "Ada"})
	f.profile.PutAddress(buyers.Address{
		ID:               "addr-" + id,
		BuyerID:          id,
		Line1:            "12 Marina Rd",
		City:             "Lagos",
		State:            "LA",
		Country:          "NG",
		IsDefaultBilling: true,
	})
}

func TestAddItem_FreezesPriceAndReservesStock(t *testing.T) {
	f := newFixture(t)
	f.seedListing("l1", 5000, catalog.SupplyLimited, 3)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, "b1", "l1", 2)
	require.NoError(t, err)
	require.Equal(t, int64(5000), item.UnitPriceCents)

	// a later price change does not touch the cart
	l, _, _ := f.listings.GetListing(ctx, "l1")
	l.PriceCents = 9999
	f.listings.Put(l)

	cart, err := f.svc.GetCart(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, int64(5000), cart.Items[0].UnitPriceCents)
	require.Equal(t, int64(10000), cart.SubtotalCents())

	// the reservation counts against availability
	l, _, _ = f.listings.GetListing(ctx, "l1")
	require.Equal(t, 2, l.ReservedQuantity)

	_, err = f.svc.AddItem(ctx, "b2", "l1", 2)
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestAddItem_RejectsUnsellable(t *testing.T) {
	f := newFixture(t)
	f.listings.Put(catalog.Listing{ID: "l1", SellerID: "s1", PriceCents: 5000, Currency: "NGN", Status: catalog.ListingStatusPending})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "b1", "l1", 1)
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = f.svc.AddItem(ctx, "b1", "missing", 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveItem_ReleasesReservation(t *testing.T) {
	f := newFixture(t)
	f.seedListing("l1", 5000, catalog.SupplyLimited, 3)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, "b1", "l1", 2)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveItem(ctx, "b1", item.ID))

	l, _, _ := f.listings.GetListing(ctx, "l1")
	require.Equal(t, 0, l.ReservedQuantity)

	require.Equal(t,
		[]string{notify.EventCartItemAdded, notify.EventCartItemRemoved},
		f.sink.Types())
}

func TestCheckout_RequiresBillingAddress(t *testing.T) {
	f := newFixture(t)
	f.seedListing("l1", 5000, catalog.SupplyUnlimited, 0)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "b1", "l1", 1)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, "b1", "")
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	f.seedBuyer("b1")

	_, err := f.svc.Checkout(context.Background(), "b1", "")
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCheckout_CreatesOrdersAndDecrementsStock(t *testing.T) {
	f := newFixture(t)
	f.seedBuyer("b1")
	f.seedListing("l1", 5000, catalog.SupplyLimited, 3)
	f.seedListing("l2", 1200, catalog.SupplyUnlimited, 0)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "b1", "l1", 2)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "b1", "l2", 1)
	require.NoError(t, err)

	rcpt, err := f.svc.Checkout(ctx, "b1", "")
	require.NoError(t, err)
	require.Len(t, rcpt.Orders, 2)
	require.Equal(t, int64(11200), rcpt.SubtotalCents)
	require.Equal(t, int64(0), rcpt.DiscountCents)
	require.Equal(t, int64(11200), rcpt.TotalCents)

	// each order carries the full frozen line price
	byListing := map[string]orders.Order{}
	for _, o := range rcpt.Orders {
		byListing[o.ListingID] = o
	}
	require.Equal(t, int64(10000), byListing["l1"].AmountCents)
	require.Equal(t, int64(1200), byListing["l2"].AmountCents)
	require.Equal(t, orders.StatusPending, byListing["l1"].Status)
	require.NotEmpty(t, byListing["l1"].ShippingAddress)

	// limited listing stock decremented, reservation no longer counted
	l, _, _ := f.listings.GetListing(ctx, "l1")
	require.Equal(t, 1, l.QuantityAvailable)
	require.Equal(t, 0, l.ReservedQuantity)

	// cart is gone
	cart, err := f.svc.GetCart(ctx, "b1")
	require.NoError(t, err)
	require.Empty(t, cart.Items)

	placed, err := f.orders.ListByBuyer(ctx, "b1", 10)
	require.NoError(t, err)
	require.Len(t, placed, 2)
}

func TestCheckout_DiscountMath(t *testing.T) {
	cases := []struct {
		name         string
		discount     Discount
		wantDiscount int64
		wantTotal    int64
	}{
		{"percent", Discount{Code: "P20", PercentOff: 20, Active: true}, 2000, 8000},
		{"amount", Discount{Code: "A500", AmountOffCents: 500, Active: true}, 500, 9500},
		{"combined", Discount{Code: "C", PercentOff: 20, AmountOffCents: 500, Active: true}, 2500, 7500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedBuyer("b1")
			f.seedListing("l1", 10000, catalog.SupplyUnlimited, 0)
			ctx := context.Background()

			_, err := f.svc.AddItem(ctx, "b1", "l1", 1)
			require.NoError(t, err)
			require.NoError(t, f.svc.ApplyDiscount(ctx, "b1", tc.discount))

			rcpt, err := f.svc.Checkout(ctx, "b1", "")
			require.NoError(t, err)
			require.Equal(t, int64(10000), rcpt.SubtotalCents)
			require.Equal(t, tc.wantDiscount, rcpt.DiscountCents)
			require.Equal(t, tc.wantTotal, rcpt.TotalCents)

			// discount is informational: order amounts stay at full price
			require.Equal(t, int64(10000), rcpt.Orders[0].AmountCents)
		})
	}
}

func TestCheckout_TotalNeverNegative(t *testing.T) {
	f := newFixture(t)
	f.seedBuyer("b1")
	f.seedListing("l1", 1000, catalog.SupplyUnlimited, 0)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "b1", "l1", 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.ApplyDiscount(ctx, "b1", Discount{Code: "BIG", AmountOffCents: 5000, Active: true}))

	rcpt, err := f.svc.Checkout(ctx, "b1", "")
	require.NoError(t, err)
	require.Equal(t, int64(1000), rcpt.DiscountCents)
	require.Equal(t, int64(0), rcpt.TotalCents)
}

func TestApplyDiscount_RejectsExpired(t *testing.T) {
	f := newFixture(t)
	past := time.Now().UTC().Add(-time.Hour)
	err := f.svc.ApplyDiscount(context.Background(), "b1", Discount{Code: "OLD", PercentOff: 10, Active: true, ExpiresAt: &past})
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	err = f.svc.ApplyDiscount(context.Background(), "b1", Discount{Code: "OFF", PercentOff: 10})
	require.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCheckout_AtomicOnFailure(t *testing.T) {
	f := newFixture(t)
	f.seedBuyer("b1")
	f.seedListing("l1", 5000, catalog.SupplyLimited, 3)
	f.seedListing("l2", 1200, catalog.SupplyLimited, 5)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "b1", "l1", 2)
	require.NoError(t, err)
	item2, err := f.svc.AddItem(ctx, "b1", "l2", 1)
	require.NoError(t, err)

	f.store.FailOnCartItem = item2.ID
	_, err = f.svc.Checkout(ctx, "b1", "")
	require.Error(t, err)

	// no orders, no stock change, cart intact
	placed, err := f.orders.ListByBuyer(ctx, "b1", 10)
	require.NoError(t, err)
	require.Empty(t, placed)

	l1, _, _ := f.listings.GetListing(ctx, "l1")
	require.Equal(t, 3, l1.QuantityAvailable)
	l2, _, _ := f.listings.GetListing(ctx, "l2")
	require.Equal(t, 5, l2.QuantityAvailable)

	cart, err := f.svc.GetCart(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	// retry succeeds once the fault is gone
	f.store.FailOnCartItem = ""
	rcpt, err := f.svc.Checkout(ctx, "b1", "")
	require.NoError(t, err)
	require.Len(t, rcpt.Orders, 2)
}

// rendezvousStore holds every Finalize call until all expected checkouts have
// read the cart, so they race over the same snapshot.
type rendezvousStore struct {
	*MemoryStore
	ready *sync.WaitGroup
}

func (s *rendezvousStore) Finalize(ctx context.Context, buyerID string, lines []Line) error {
	s.ready.Done()
	s.ready.Wait()
	return s.MemoryStore.Finalize(ctx, buyerID, lines)
}

func TestCheckout_ConcurrentSameCart_ExactlyOneSucceeds(t *testing.T) {
	f := newFixture(t)
	f.seedBuyer("b1")
	f.seedListing("l1", 5000, catalog.SupplyLimited, 5)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "b1", "l1", 1)
	require.NoError(t, err)

	var ready sync.WaitGroup
	ready.Add(2)
	svc := NewService(&rendezvousStore{MemoryStore: f.store, ready: &ready}, f.listings, f.profile, f.inv, f.sink, slog.Default())

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Checkout(ctx, "b1", "")
			results <- err
		}()
	}

	var failures int
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			require.ErrorIs(t, err, apperr.ErrConflict)
			failures++
		}
	}
	require.Equal(t, 1, failures)

	// one order set, stock decremented once
	placed, err := f.orders.ListByBuyer(ctx, "b1", 10)
	require.NoError(t, err)
	require.Len(t, placed, 1)

	l, _, _ := f.listings.GetListing(ctx, "l1")
	require.Equal(t, 4, l.QuantityAvailable)
}

func TestClearCart_ReleasesEverything(t *testing.T) {
	f := newFixture(t)
	f.seedListing("l1", 5000, catalog.SupplyLimited, 3)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "b1", "l1", 2)
	require.NoError(t, err)

	require.NoError(t, f.svc.ClearCart(ctx, "b1"))

	l, _, _ := f.listings.GetListing(ctx, "l1")
	require.Equal(t, 0, l.ReservedQuantity)

	cart, err := f.svc.GetCart(ctx, "b1")
	require.NoError(t, err)
	require.Empty(t, cart.Items)
}

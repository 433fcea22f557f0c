package escrow

import (
	"context"
	"time"

	"marketplace-platform/internal/apperr"
	"marketplace-platform/internal/ledger"
	"marketplace-platform/internal/money"
	"marketplace-platform/internal/orders"
	"marketplace-platform/internal/rbac"

	"github.com/google/uuid"
)

// Store is the transactional persistence contract for holds.
//
// Release pairs the guarded hold transition with its payout ledger credit in
// one transaction: a hold may not be released without a matching completed
// ledger credit, and vice versa.
type Store interface {
	// OpenHold inserts an active hold unless one already exists for the order.
	OpenHold(ctx context.Context, h Hold) (created bool, err error)

	ActiveHoldByOrder(ctx context.Context, orderID string) (Hold, bool, error)

	// Release transitions the hold active -> released (guarded) and appends the
	// payout ledger credit atomically. ok=false when the hold is not active.
	Release(ctx context.Context, holdID string, releasedAt time.Time, credit ledger.Entry) (ok bool, err error)

	// SellerEscrowBalance sums order amounts joined to active holds.
	SellerEscrowBalance(ctx context.Context, sellerID, currency string) (int64, error)

	SellerActiveHolds(ctx context.Context, sellerID, currency string) ([]HoldView, error)

	// ReleaseEligible lists active holds whose created_at is before the cutoff.
	ReleaseEligible(ctx context.Context, cutoff time.Time, limit int) ([]HoldView, error)
}

type OrderReader interface {
	GetOrder(ctx context.Context, id string) (orders.Order, bool, error)
	TransitionStatus(ctx context.Context, id string, from, to orders.Status, delivery orders.DeliveryStatus) (bool, error)
}

type Service struct {
	store  Store
	orders OrderReader
	clock  func() time.Time
}

func NewService(store Store, orderReader OrderReader) *Service {
	return &Service{store: store, orders: orderReader, clock: time.Now}
}

// OpenHold places an order's funds in escrow at payment confirmation. The
// seller confirms payment; a pending order moves to confirmed alongside.
func (s *Service) OpenHold(ctx context.Context, actor rbac.Actor, orderID string) (Hold, error) {
	o, ok, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return Hold{}, err
	}
	if !ok {
		return Hold{}, apperr.NotFoundf("order %s", orderID)
	}
	if !rbac.CanActOn(actor, rbac.Resource{BuyerID: o.BuyerID, SellerID: o.SellerID}, rbac.ActionConfirmPayment) {
		return Hold{}, apperr.Unauthorizedf("only the seller may confirm payment")
	}
	if orders.IsTerminal(o.Status) {
		return Hold{}, apperr.InvalidStatef("cannot hold funds for a %s order", o.Status)
	}

	h := Hold{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Status:    HoldActive,
		CreatedAt: s.clock().UTC(),
	}
	created, err := s.store.OpenHold(ctx, h)
	if err != nil {
		return Hold{}, err
	}
	if !created {
		return Hold{}, apperr.Conflictf("order %s already has an active hold", orderID)
	}

	if o.Status == orders.StatusPending {
		// best-effort: a failed transition leaves the hold valid, and the
		// seller can still confirm the order explicitly
		_, _ = s.orders.TransitionStatus(ctx, orderID, orders.StatusPending, orders.StatusConfirmed, "")
	}
	return h, nil
}

// Release pays the seller out of escrow. Allowed once the buyer has confirmed
// delivery, or unconditionally once the 30-day window has elapsed.
func (s *Service) Release(ctx context.Context, actor rbac.Actor, orderID string) (Hold, error) {
	o, ok, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return Hold{}, err
	}
	if !ok {
		return Hold{}, apperr.NotFoundf("order %s", orderID)
	}
	if !rbac.CanActOn(actor, rbac.Resource{BuyerID: o.BuyerID, SellerID: o.SellerID}, rbac.ActionReleasePayout) {
		return Hold{}, apperr.Unauthorizedf("only the seller may release the payout")
	}

	h, ok, err := s.store.ActiveHoldByOrder(ctx, orderID)
	if err != nil {
		return Hold{}, err
	}
	if !ok {
		return Hold{}, apperr.NotFoundf("no active hold for order %s", orderID)
	}

	now := s.clock().UTC()
	if o.Status != orders.StatusDelivered && h.DaysRemaining(now) > 0 {
		return Hold{}, apperr.InvalidStatef("hold for order %s is not releasable yet: %d days remaining", orderID, h.DaysRemaining(now))
	}

	credit := ledger.Entry{
		ID:          uuid.NewString(),
		SellerID:    o.SellerID,
		OrderID:     o.ID,
		Type:        ledger.TypePayout,
		AmountCents: o.AmountCents,
		Currency:    o.Currency,
		Status:      ledger.StatusCompleted,
		Description: "escrow release",
		CreatedAt:   now,
	}
	released, err := s.store.Release(ctx, h.ID, now, credit)
	if err != nil {
		return Hold{}, err
	}
	if !released {
		return Hold{}, apperr.Conflictf("hold for order %s was released or refunded concurrently", orderID)
	}

	h.Status = HoldReleased
	h.ReleasedAt = &now
	return h, nil
}

// SellerEscrowBalance is a live, recomputed value; it is never cached.
func (s *Service) SellerEscrowBalance(ctx context.Context, sellerID, currency string) (money.Money, error) {
	if sellerID == "" {
		return money.Money{}, apperr.InvalidStatef("seller_id required")
	}
	if err := money.ValidateCurrency(currency); err != nil {
		return money.Money{}, apperr.InvalidStatef("currency: %v", err)
	}
	sum, err := s.store.SellerEscrowBalance(ctx, sellerID, currency)
	if err != nil {
		return money.Money{}, err
	}
	return money.Money{AmountCents: sum, Currency: currency}, nil
}

// SellerActiveHolds lists the seller's holds with derived expiry fields.
func (s *Service) SellerActiveHolds(ctx context.Context, sellerID, currency string) ([]HoldView, error) {
	if sellerID == "" {
		return nil, apperr.InvalidStatef("seller_id required")
	}
	if err := money.ValidateCurrency(currency); err != nil {
		return nil, apperr.InvalidStatef("currency: %v", err)
	}
	views, err := s.store.SellerActiveHolds(ctx, sellerID, currency)
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	for i := range views {
		views[i].DaysRemainingView = views[i].DaysRemaining(now)
		views[i].ExpiresAtView = views[i].ExpiresAt()
	}
	return views, nil
}

// SweepAutoRelease releases every hold past its window. Run by the sweeper
// process with an admin actor.
func (s *Service) SweepAutoRelease(ctx context.Context, actor rbac.Actor, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := s.clock().UTC().Add(-ReleaseWindow)
	eligible, err := s.store.ReleaseEligible(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, v := range eligible {
		if _, err := s.Release(ctx, actor, v.OrderID); err != nil {
			// a concurrent release/refund is fine; anything else aborts the sweep
			if apperr.IsClient(err) {
				continue
			}
			return released, err
		}
		released++
	}
	return released, nil
}

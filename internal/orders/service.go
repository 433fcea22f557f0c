package orders

import (
	"context"

	"marketplace-platform/internal/apperr"
	"marketplace-platform/internal/rbac"
)

// Repository is the persistence contract the order service needs.
type Repository interface {
	GetOrder(ctx context.Context, id string) (Order, bool, error)
	ListByBuyer(ctx context.Context, buyerID string, limit int) ([]Order, error)
	ListBySeller(ctx context.Context, sellerID string, limit int) ([]Order, error)
	TransitionStatus(ctx context.Context, id string, from, to Status, delivery DeliveryStatus) (bool, error)
}

// ReservationReleaser frees stock reservations when an order is canceled.
type ReservationReleaser interface {
	ReleaseOwner(ctx context.Context, ownerRef string) error
}

type Service struct {
	repo         Repository
	reservations ReservationReleaser
}

func NewService(repo Repository, reservations ReservationReleaser) *Service {
	return &Service{repo: repo, reservations: reservations}
}

func (s *Service) Get(ctx context.Context, actor rbac.Actor, orderID string) (Order, error) {
	o, ok, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, apperr.NotFoundf("order %s", orderID)
	}
	if !rbac.CanActOn(actor, rbac.Resource{BuyerID: o.BuyerID, SellerID: o.SellerID}, rbac.ActionView) {
		return Order{}, apperr.Unauthorizedf("not a party to order %s", orderID)
	}
	return o, nil
}

func (s *Service) ListForBuyer(ctx context.Context, buyerID string, limit int) ([]Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByBuyer(ctx, buyerID, limit)
}

func (s *Service) ListForSeller(ctx context.Context, sellerID string, limit int) ([]Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListBySeller(ctx, sellerID, limit)
}

// SellerUpdateStatus advances an order along the seller-driven part of the
// lifecycle (confirmed -> processing -> shipped). Shipping also moves the
// delivery status to in_transit.
func (s *Service) SellerUpdateStatus(ctx context.Context, actor rbac.Actor, orderID string, to Status) (Order, error) {
	o, ok, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, apperr.NotFoundf("order %s", orderID)
	}
	if !rbac.CanActOn(actor, rbac.Resource{BuyerID: o.BuyerID, SellerID: o.SellerID}, rbac.ActionUpdateStatus) {
		return Order{}, apperr.Unauthorizedf("only the seller may update order status")
	}

	switch to {
	case StatusConfirmed, StatusProcessing, StatusShipped:
	default:
		return Order{}, apperr.InvalidStatef("sellers may only move orders to confirmed, processing or shipped")
	}
	if !CanTransition(o.Status, to) {
		return Order{}, apperr.InvalidStatef("cannot move order from %s to %s", o.Status, to)
	}

	delivery := DeliveryStatus("")
	if to == StatusShipped {
		delivery = DeliveryInTransit
	}

	return s.transition(ctx, o, to, delivery)
}

// BuyerConfirmDelivery marks a shipped order delivered.
func (s *Service) BuyerConfirmDelivery(ctx context.Context, actor rbac.Actor, orderID string) (Order, error) {
	o, ok, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, apperr.NotFoundf("order %s", orderID)
	}
	if !rbac.CanActOn(actor, rbac.Resource{BuyerID: o.BuyerID, SellerID: o.SellerID}, rbac.ActionConfirmDelivery) {
		return Order{}, apperr.Unauthorizedf("only the buyer may confirm delivery")
	}
	if !CanTransition(o.Status, StatusDelivered) {
		return Order{}, apperr.InvalidStatef("cannot confirm delivery of a %s order", o.Status)
	}

	return s.transition(ctx, o, StatusDelivered, DeliveryDelivered)
}

// BuyerCancel cancels an order that has not entered fulfillment yet and
// releases any stock reservation still held for it.
func (s *Service) BuyerCancel(ctx context.Context, actor rbac.Actor, orderID string) (Order, error) {
	o, ok, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, apperr.NotFoundf("order %s", orderID)
	}
	if !rbac.CanActOn(actor, rbac.Resource{BuyerID: o.BuyerID, SellerID: o.SellerID}, rbac.ActionCancel) {
		return Order{}, apperr.Unauthorizedf("only the buyer may cancel")
	}
	if !CanTransition(o.Status, StatusCanceled) {
		return Order{}, apperr.InvalidStatef("cannot cancel a %s order", o.Status)
	}

	out, err := s.transition(ctx, o, StatusCanceled, "")
	if err != nil {
		return Order{}, err
	}
	if s.reservations != nil {
		// best-effort: the sweeper reclaims anything missed here
		_ = s.reservations.ReleaseOwner(ctx, o.ID)
	}
	return out, nil
}

func (s *Service) transition(ctx context.Context, o Order, to Status, delivery DeliveryStatus) (Order, error) {
	ok, err := s.repo.TransitionStatus(ctx, o.ID, o.Status, to, delivery)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, apperr.Conflictf("order %s changed concurrently", o.ID)
	}
	o.Status = to
	if delivery != "" {
		o.DeliveryStatus = delivery
	}
	return o, nil
}

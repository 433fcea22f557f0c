package refunds

import (
	"context"
	"strings"
	"time"

	"marketplace-platform/internal/apperr"
	"marketplace-platform/internal/escrow"
	"marketplace-platform/internal/ledger"
	"marketplace-platform/internal/money"
	"marketplace-platform/internal/notify"
	"marketplace-platform/internal/orders"
	"marketplace-platform/internal/rbac"

	"github.com/google/uuid"
)

// Store is the transactional persistence contract. Every method that moves
// money pairs the refund-state write with its ledger effect in one
// transaction; a guard miss means no writes at all.
type Store interface {
	// Create inserts the refund and its initiation ledger entry atomically,
	// optionally flipping the order's active hold to refunded in the same
	// transaction. created=false with no writes when the order already has a
	// non-terminal refund.
	Create(ctx context.Context, r Refund, entry ledger.Entry, refundHold bool) (created bool, err error)

	Get(ctx context.Context, refundID string) (Refund, bool, error)

	ListByOrder(ctx context.Context, orderID string) ([]Refund, error)

	// Approve transitions return_requested -> return_approved, stamps the
	// restock percentage and appends the provisional debit.
	Approve(ctx context.Context, refundID string, processedAt time.Time, restockPercentage int64, entry ledger.Entry) (bool, error)

	// Reject transitions return_requested -> return_rejected.
	Reject(ctx context.Context, refundID string, processedAt time.Time) (bool, error)

	// Complete transitions from -> refunded and applies fx atomically.
	Complete(ctx context.Context, refundID string, from Status, refundedAt time.Time, fx CompleteEffects) (bool, error)
}

// CompleteEffects is what lands alongside the refunded transition.
type CompleteEffects struct {
	// Entry, when set, is appended: the realized debit on the return path.
	Entry *ledger.Entry
	// MarkEntryID, when set, flips that pending entry to completed: the
	// direct path realizes its initiation debit instead of appending.
	MarkEntryID string
	// RefundHold flips the order's active hold to refunded, if one exists.
	RefundHold bool
	// OrderReturned moves the order delivered -> returned; skipped silently
	// when the order is in another state.
	OrderReturned bool
}

type OrderReader interface {
	GetOrder(ctx context.Context, id string) (orders.Order, bool, error)
}

type HoldReader interface {
	ActiveHoldByOrder(ctx context.Context, orderID string) (escrow.Hold, bool, error)
}

// ReversalReader exposes the completed reversing total the over-refund guard
// needs; the ledger repositories implement it.
type ReversalReader interface {
	SumCompletedReversalsByOrder(ctx context.Context, orderID string) (int64, error)
}

type Service struct {
	store     Store
	orders    OrderReader
	holds     HoldReader
	reversals ReversalReader
	sink      notify.Sink
	clock     func() time.Time
}

func NewService(store Store, orderReader OrderReader, holds HoldReader, reversals ReversalReader, sink notify.Sink) *Service {
	return &Service{
		store:     store,
		orders:    orderReader,
		holds:     holds,
		reversals: reversals,
		sink:      sink,
		clock:     time.Now,
	}
}

func (s *Service) Get(ctx context.Context, actor rbac.Actor, refundID string) (Refund, error) {
	r, ok, err := s.store.Get(ctx, refundID)
	if err != nil {
		return Refund{}, err
	}
	if !ok {
		return Refund{}, apperr.NotFoundf("refund %s", refundID)
	}
	if !rbac.CanActOn(actor, rbac.Resource{BuyerID: r.BuyerID, SellerID: r.SellerID}, rbac.ActionView) {
		return Refund{}, apperr.Unauthorizedf("refund %s does not belong to you", refundID)
	}
	return r, nil
}

func (s *Service) ListForOrder(ctx context.Context, actor rbac.Actor, orderID string) ([]Refund, error) {
	o, err := s.ownedOrder(ctx, actor, orderID, rbac.ActionView)
	if err != nil {
		return nil, err
	}
	return s.store.ListByOrder(ctx, o.ID)
}

// RefundPayment is the seller's direct refund: no physical return involved.
// The refund starts pending with its ledger debit; the hold is frozen to
// refunded immediately so the funds can never be paid out.
func (s *Service) RefundPayment(ctx context.Context, actor rbac.Actor, orderID string, amountCents int64, refundType Type, reason string) (Refund, error) {
	o, err := s.ownedOrder(ctx, actor, orderID, rbac.ActionRefund)
	if err != nil {
		return Refund{}, err
	}
	if refundType == TypeFull || amountCents == 0 {
		amountCents = o.AmountCents
	}
	if err := s.checkAmount(ctx, o, amountCents); err != nil {
		return Refund{}, err
	}
	if _, held, err := s.holds.ActiveHoldByOrder(ctx, orderID); err != nil {
		return Refund{}, err
	} else if !held {
		return Refund{}, apperr.InvalidStatef("order %s has no captured payment to refund", orderID)
	}

	now := s.clock().UTC()
	r := Refund{
		ID:          uuid.NewString(),
		OrderID:     o.ID,
		BuyerID:     o.BuyerID,
		SellerID:    o.SellerID,
		AmountCents: amountCents,
		Currency:    o.Currency,
		Type:        refundType,
		Status:      StatusPending,
		Reason:      reason,
		RequestedAt: now,
	}
	entry := ledger.Entry{
		ID:          uuid.NewString(),
		SellerID:    o.SellerID,
		OrderID:     o.ID,
		RefundID:    r.ID,
		Type:        ledger.TypeRefund,
		AmountCents: -amountCents,
		Currency:    o.Currency,
		Status:      ledger.StatusPending,
		Description: "refund initiated by seller",
		CreatedAt:   now,
	}
	r.InitiationEntryID = entry.ID

	return s.create(ctx, r, entry, true)
}

// InitiateRefund is the buyer's refund request on a delivered order. It gets
// an RMA number so the flow can be matched to a physical return if one
// follows.
func (s *Service) InitiateRefund(ctx context.Context, actor rbac.Actor, orderID string, amountCents int64, reason string) (Refund, error) {
	o, err := s.ownedOrder(ctx, actor, orderID, rbac.ActionRequestReturn)
	if err != nil {
		return Refund{}, err
	}
	if o.DeliveryStatus != orders.DeliveryDelivered {
		return Refund{}, apperr.InvalidStatef("order %s has not been delivered", orderID)
	}
	if amountCents == 0 {
		amountCents = o.AmountCents
	}
	if err := s.checkAmount(ctx, o, amountCents); err != nil {
		return Refund{}, err
	}
	if _, held, err := s.holds.ActiveHoldByOrder(ctx, orderID); err != nil {
		return Refund{}, err
	} else if !held {
		return Refund{}, apperr.InvalidStatef("order %s has no captured payment to refund", orderID)
	}

	now := s.clock().UTC()
	r := Refund{
		ID:          uuid.NewString(),
		OrderID:     o.ID,
		BuyerID:     o.BuyerID,
		SellerID:    o.SellerID,
		AmountCents: amountCents,
		Currency:    o.Currency,
		Type:        TypeFull,
		Status:      StatusPending,
		Reason:      reason,
		RMANumber:   newRMANumber(),
		RequestedAt: now,
	}
	if amountCents < o.AmountCents {
		r.Type = TypePartial
	}
	entry := ledger.Entry{
		ID:          uuid.NewString(),
		SellerID:    o.SellerID,
		OrderID:     o.ID,
		RefundID:    r.ID,
		Type:        ledger.TypeRefundInitiated,
		AmountCents: -amountCents,
		Currency:    o.Currency,
		Status:      ledger.StatusPending,
		Description: "refund initiated by buyer",
		CreatedAt:   now,
	}
	r.InitiationEntryID = entry.ID

	return s.create(ctx, r, entry, true)
}

// RequestReturn opens the return workflow. No money moves yet; a zero-amount
// ledger entry records the request and the seller is notified.
func (s *Service) RequestReturn(ctx context.Context, actor rbac.Actor, orderID, reason, description string) (Refund, error) {
	if strings.TrimSpace(reason) == "" {
		return Refund{}, apperr.InvalidStatef("reason is required")
	}
	if len(strings.TrimSpace(description)) < 10 {
		return Refund{}, apperr.InvalidStatef("description must be at least 10 characters")
	}
	o, err := s.ownedOrder(ctx, actor, orderID, rbac.ActionRequestReturn)
	if err != nil {
		return Refund{}, err
	}

	now := s.clock().UTC()
	if now.Sub(o.CreatedAt) > ReturnWindow {
		return Refund{}, apperr.InvalidStatef("return window expired for order %s", orderID)
	}

	r := Refund{
		ID:          uuid.NewString(),
		OrderID:     o.ID,
		BuyerID:     o.BuyerID,
		SellerID:    o.SellerID,
		AmountCents: o.AmountCents,
		Currency:    o.Currency,
		Type:        TypeFull,
		Status:      StatusReturnRequested,
		Reason:      reason,
		Description: description,
		RMANumber:   newRMANumber(),
		RequestedAt: now,
	}
	entry := ledger.Entry{
		ID:          uuid.NewString(),
		SellerID:    o.SellerID,
		OrderID:     o.ID,
		RefundID:    r.ID,
		Type:        ledger.TypeReturnRequest,
		AmountCents: 0,
		Currency:    o.Currency,
		Status:      ledger.StatusCompleted,
		Description: "return requested: " + reason,
		CreatedAt:   now,
	}

	created, err := s.create(ctx, r, entry, false)
	if err != nil {
		return Refund{}, err
	}
	s.sink.ReturnRequested(ctx, notify.ReturnEvent{
		RefundID: created.ID,
		OrderID:  o.ID,
		BuyerID:  o.BuyerID,
		SellerID: o.SellerID,
		Reason:   reason,
	})
	return created, nil
}

// ProcessReturn is the seller's approve/reject decision on a requested
// return. Approval writes a provisional debit scaled by the restock
// percentage; rejection is terminal and notifies the buyer.
func (s *Service) ProcessReturn(ctx context.Context, actor rbac.Actor, refundID string, approve bool, restockPercentage int64) (Refund, error) {
	r, ok, err := s.store.Get(ctx, refundID)
	if err != nil {
		return Refund{}, err
	}
	if !ok {
		return Refund{}, apperr.NotFoundf("refund %s", refundID)
	}
	if !rbac.CanActOn(actor, rbac.Resource{BuyerID: r.BuyerID, SellerID: r.SellerID}, rbac.ActionProcessReturn) {
		return Refund{}, apperr.Unauthorizedf("only the seller may process this return")
	}
	if r.Status != StatusReturnRequested {
		return Refund{}, apperr.InvalidStatef("refund %s is %s, not return_requested", refundID, r.Status)
	}

	now := s.clock().UTC()
	if !approve {
		done, err := s.store.Reject(ctx, refundID, now)
		if err != nil {
			return Refund{}, err
		}
		if !done {
			return Refund{}, apperr.Conflictf("refund %s changed state concurrently", refundID)
		}
		r.Status = StatusReturnRejected
		r.ProcessedAt = &now
		s.sink.ReturnRejected(ctx, notify.ReturnEvent{
			RefundID: r.ID,
			OrderID:  r.OrderID,
			BuyerID:  r.BuyerID,
			SellerID: r.SellerID,
			Reason:   r.Reason,
		})
		return r, nil
	}

	if restockPercentage == 0 {
		restockPercentage = 100
	}
	if restockPercentage < 0 || restockPercentage > 100 {
		return Refund{}, apperr.InvalidStatef("restock percentage must be between 0 and 100, got %d", restockPercentage)
	}
	amount := money.RoundPercent(r.AmountCents, restockPercentage)

	o, ok, err := s.orders.GetOrder(ctx, r.OrderID)
	if err != nil {
		return Refund{}, err
	}
	if !ok {
		return Refund{}, apperr.NotFoundf("order %s", r.OrderID)
	}
	if err := s.checkAmount(ctx, o, amount); err != nil {
		return Refund{}, err
	}

	entry := ledger.Entry{
		ID:          uuid.NewString(),
		SellerID:    r.SellerID,
		OrderID:     r.OrderID,
		RefundID:    r.ID,
		Type:        ledger.TypeReturnApproved,
		AmountCents: -amount,
		Currency:    r.Currency,
		Status:      ledger.StatusPending,
		Description: "return approved",
		CreatedAt:   now,
	}
	done, err := s.store.Approve(ctx, refundID, now, restockPercentage, entry)
	if err != nil {
		return Refund{}, err
	}
	if !done {
		return Refund{}, apperr.Conflictf("refund %s changed state concurrently", refundID)
	}
	r.Status = StatusReturnApproved
	r.ProcessedAt = &now
	r.RestockPercentage = restockPercentage
	return r, nil
}

// CompleteRefund realizes the reversal. For a direct refund the pending
// initiation debit flips to completed; for an approved return a completed
// refund_completed debit is appended (the provisional approval entry stays
// pending as the audit record). Either way the hold ends refunded and a
// delivered order moves to returned.
func (s *Service) CompleteRefund(ctx context.Context, actor rbac.Actor, refundID string) (Refund, error) {
	r, ok, err := s.store.Get(ctx, refundID)
	if err != nil {
		return Refund{}, err
	}
	if !ok {
		return Refund{}, apperr.NotFoundf("refund %s", refundID)
	}
	if !rbac.CanActOn(actor, rbac.Resource{BuyerID: r.BuyerID, SellerID: r.SellerID}, rbac.ActionCompleteRefund) {
		return Refund{}, apperr.Unauthorizedf("only the seller may complete this refund")
	}

	o, ok, err := s.orders.GetOrder(ctx, r.OrderID)
	if err != nil {
		return Refund{}, err
	}
	if !ok {
		return Refund{}, apperr.NotFoundf("order %s", r.OrderID)
	}

	now := s.clock().UTC()
	var fx CompleteEffects
	switch r.Status {
	case StatusPending:
		if err := s.checkAmount(ctx, o, r.AmountCents); err != nil {
			return Refund{}, err
		}
		fx = CompleteEffects{
			MarkEntryID:   r.InitiationEntryID,
			RefundHold:    true,
			OrderReturned: true,
		}
	case StatusReturnApproved:
		amount := money.RoundPercent(r.AmountCents, r.RestockPercentage)
		if err := s.checkAmount(ctx, o, amount); err != nil {
			return Refund{}, err
		}
		fx = CompleteEffects{
			Entry: &ledger.Entry{
				ID:          uuid.NewString(),
				SellerID:    r.SellerID,
				OrderID:     r.OrderID,
				RefundID:    r.ID,
				Type:        ledger.TypeRefundCompleted,
				AmountCents: -amount,
				Currency:    r.Currency,
				Status:      ledger.StatusCompleted,
				Description: "refund completed after return",
				CreatedAt:   now,
			},
			RefundHold:    true,
			OrderReturned: true,
		}
	default:
		return Refund{}, apperr.InvalidStatef("refund %s is %s and cannot be completed", refundID, r.Status)
	}

	done, err := s.store.Complete(ctx, refundID, r.Status, now, fx)
	if err != nil {
		return Refund{}, err
	}
	if !done {
		return Refund{}, apperr.Conflictf("refund %s changed state concurrently", refundID)
	}
	r.Status = StatusRefunded
	r.RefundedAt = &now
	return r, nil
}

func (s *Service) ownedOrder(ctx context.Context, actor rbac.Actor, orderID string, action rbac.Action) (orders.Order, error) {
	o, ok, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if !ok {
		return orders.Order{}, apperr.NotFoundf("order %s", orderID)
	}
	if !rbac.CanActOn(actor, rbac.Resource{BuyerID: o.BuyerID, SellerID: o.SellerID}, action) {
		return orders.Order{}, apperr.Unauthorizedf("order %s does not belong to you", orderID)
	}
	return o, nil
}

// checkAmount enforces the over-refund invariant: requested amount plus all
// already-completed reversals must not exceed the order amount.
func (s *Service) checkAmount(ctx context.Context, o orders.Order, amountCents int64) error {
	if amountCents <= 0 {
		return apperr.InvalidStatef("refund amount must be positive, got %d", amountCents)
	}
	if amountCents > o.AmountCents {
		return apperr.InvalidStatef("refund amount cannot exceed order amount")
	}
	reversed, err := s.reversals.SumCompletedReversalsByOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	if reversed < 0 {
		reversed = -reversed
	}
	if reversed+amountCents > o.AmountCents {
		return apperr.InvalidStatef("refund amount cannot exceed order amount: %d already reversed", reversed)
	}
	return nil
}

func (s *Service) create(ctx context.Context, r Refund, entry ledger.Entry, refundHold bool) (Refund, error) {
	created, err := s.store.Create(ctx, r, entry, refundHold)
	if err != nil {
		return Refund{}, err
	}
	if !created {
		return Refund{}, apperr.Conflictf("order %s already has a refund in progress", r.OrderID)
	}
	return r, nil
}

func newRMANumber() string {
	return "RMA-" + strings.ToUpper(uuid.NewString()[:8])
}

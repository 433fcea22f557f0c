package ledger

import (
	"context"
	"time"

	"marketplace-platform/internal/apperr"
	"marketplace-platform/internal/money"

	"github.com/google/uuid"
)

// Repository abstracts ledger persistence.
//
// It MUST be append-only: no Update/Delete beyond the pending -> completed|failed
// status transition.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	MarkStatus(ctx context.Context, id string, from, to EntryStatus) (bool, error)
	SumCompletedBySeller(ctx context.Context, sellerID, currency string) (int64, error)
	SumCompletedReversalsByOrder(ctx context.Context, orderID string) (int64, error)
	ListBySeller(ctx context.Context, sellerID, currency string, limit int) ([]Entry, error)
}

// Service exposes the ledger read API consumed by seller dashboards, plus the
// append path used by money-moving transactions.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.SellerID == "" || e.OrderID == "" {
		return Entry{}, apperr.InvalidStatef("ledger entry requires seller_id and order_id")
	}
	if e.Type == "" {
		return Entry{}, apperr.InvalidStatef("ledger entry requires a transaction type")
	}
	if err := money.ValidateCurrency(e.Currency); err != nil {
		return Entry{}, apperr.InvalidStatef("ledger entry currency: %v", err)
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Complete transitions a pending entry to completed. The guarded update keeps
// two concurrent completions from both succeeding.
func (s *Service) Complete(ctx context.Context, id string) error {
	ok, err := s.repo.MarkStatus(ctx, id, StatusPending, StatusCompleted)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflictf("ledger entry %s is not pending", id)
	}
	return nil
}

// SellerBalance is the realized balance: sum of completed entries for the
// seller in one currency.
func (s *Service) SellerBalance(ctx context.Context, sellerID, currency string) (money.Money, error) {
	if sellerID == "" {
		return money.Money{}, apperr.InvalidStatef("seller_id required")
	}
	if err := money.ValidateCurrency(currency); err != nil {
		return money.Money{}, apperr.InvalidStatef("currency: %v", err)
	}
	sum, err := s.repo.SumCompletedBySeller(ctx, sellerID, currency)
	if err != nil {
		return money.Money{}, err
	}
	return money.Money{AmountCents: sum, Currency: currency}, nil
}

// PayoutHistory lists the seller's most recent entries for dashboards.
func (s *Service) PayoutHistory(ctx context.Context, sellerID, currency string, limit int) ([]Entry, error) {
	if sellerID == "" {
		return nil, apperr.InvalidStatef("seller_id required")
	}
	if err := money.ValidateCurrency(currency); err != nil {
		return nil, apperr.InvalidStatef("currency: %v", err)
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.ListBySeller(ctx, sellerID, currency, limit)
}

// ReversedTotal reports the sum of completed reversing entries for an order,
// as a positive number of cents. Refund guards use it to enforce that a refund
// flow never reverses more than was paid.
func (s *Service) ReversedTotal(ctx context.Context, orderID string) (int64, error) {
	sum, err := s.repo.SumCompletedReversalsByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if sum < 0 {
		sum = -sum
	}
	return sum, nil
}

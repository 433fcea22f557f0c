package reporting

import (
	"context"
	"errors"

	"marketplace-platform/internal/escrow"
	"marketplace-platform/internal/money"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Implementations should query immutable sources when possible (financial
//   ledger, payment holds).
// - The ledger side and the escrow side are deliberately independent reads;
//   a summary is a snapshot, not a transaction.

type Repository interface {
	SumCompletedBySeller(ctx context.Context, sellerID, currency string) (int64, error)
	SellerEscrowBalance(ctx context.Context, sellerID, currency string) (int64, error)
	SellerActiveHolds(ctx context.Context, sellerID, currency string) ([]escrow.HoldView, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) FinanceSummary(ctx context.Context, req FinanceSummaryRequest) (FinanceSummary, error) {
	if req.SellerID == "" {
		return FinanceSummary{}, ErrInvalidRequest
	}
	if err := money.ValidateCurrency(req.Currency); err != nil {
		return FinanceSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return FinanceSummary{}, errors.New("reporting: repository not configured")
	}

	realized, err := s.repo.SumCompletedBySeller(ctx, req.SellerID, req.Currency)
	if err != nil {
		return FinanceSummary{}, err
	}
	inEscrow, err := s.repo.SellerEscrowBalance(ctx, req.SellerID, req.Currency)
	if err != nil {
		return FinanceSummary{}, err
	}
	holds, err := s.repo.SellerActiveHolds(ctx, req.SellerID, req.Currency)
	if err != nil {
		return FinanceSummary{}, err
	}

	out := FinanceSummary{
		SellerID:             req.SellerID,
		Currency:             req.Currency,
		RealizedBalanceCents: realized,
		EscrowBalanceCents:   inEscrow,
		ActiveHolds:          len(holds),
	}
	for _, h := range holds {
		exp := h.ExpiresAt()
		if out.NextReleaseAt == nil || exp.Before(*out.NextReleaseAt) {
			out.NextReleaseAt = &exp
		}
	}
	return out, nil
}

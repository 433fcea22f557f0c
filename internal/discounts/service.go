package discounts

import (
	"context"
	"strings"
	"time"

	"marketplace-platform/internal/apperr"
)

// Repository is the lookup contract for discount codes.
type Repository interface {
	FindByCode(ctx context.Context, code string, at time.Time) (CodeDiscount, bool, error)
}

// Service resolves discount codes for checkout. Pure lookup + validation; the
// discount math itself lives with the cart.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Resolve returns the discount behind a code if it is currently in effect.
func (s *Service) Resolve(ctx context.Context, code string) (CodeDiscount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return CodeDiscount{}, apperr.InvalidStatef("discount code required")
	}
	d, found, err := s.repo.FindByCode(ctx, code, s.clock().UTC())
	if err != nil {
		return CodeDiscount{}, err
	}
	if !found {
		return CodeDiscount{}, apperr.NotFoundf("discount code %s", code)
	}
	return d, nil
}

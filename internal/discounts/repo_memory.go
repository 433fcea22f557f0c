package discounts

import (
	"context"
	"time"
)

// MemoryRepo is a simple in-memory repository useful for tests and early
// development. It supports exact code matches.
//
// NOTE: This is not intended for production; replace with PostgresRepo.
type MemoryRepo struct {
	Discounts []CodeDiscount
}

func (r *MemoryRepo) FindByCode(ctx context.Context, code string, at time.Time) (CodeDiscount, bool, error) {
	_ = ctx

	// Prefer the most recent effective row for the code.
	var best CodeDiscount
	found := false

	for _, d := range r.Discounts {
		if d.Code != code {
			continue
		}
		if !d.InEffect(at) {
			continue
		}
		if !found || d.EffectiveFrom.After(best.EffectiveFrom) {
			best = d
			found = true
		}
	}

	return best, found, nil
}

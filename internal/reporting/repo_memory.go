package reporting

import (
	"context"

	"marketplace-platform/internal/escrow"
	"marketplace-platform/internal/ledger"
)

// MemoryRepo composes the ledger and escrow memory stores, mirroring how the
// production wiring composes their Postgres counterparts.
type MemoryRepo struct {
	Ledger *ledger.MemoryRepo
	Holds  *escrow.MemoryStore
}

func (r *MemoryRepo) SumCompletedBySeller(ctx context.Context, sellerID, currency string) (int64, error) {
	return r.Ledger.SumCompletedBySeller(ctx, sellerID, currency)
}

func (r *MemoryRepo) SellerEscrowBalance(ctx context.Context, sellerID, currency string) (int64, error) {
	return r.Holds.SellerEscrowBalance(ctx, sellerID, currency)
}

func (r *MemoryRepo) SellerActiveHolds(ctx context.Context, sellerID, currency string) ([]escrow.HoldView, error) {
	return r.Holds.SellerActiveHolds(ctx, sellerID, currency)
}

package reporting

import (
	"context"

	"marketplace-platform/internal/escrow"
	"marketplace-platform/internal/ledger"
)

// PostgresRepo delegates to the ledger and escrow Postgres stores; reporting
// owns no tables of its own.
type PostgresRepo struct {
	Ledger *ledger.PostgresRepo
	Holds  *escrow.PostgresStore
}

func (r *PostgresRepo) SumCompletedBySeller(ctx context.Context, sellerID, currency string) (int64, error) {
	return r.Ledger.SumCompletedBySeller(ctx, sellerID, currency)
}

func (r *PostgresRepo) SellerEscrowBalance(ctx context.Context, sellerID, currency string) (int64, error) {
	return r.Holds.SellerEscrowBalance(ctx, sellerID, currency)
}

func (r *PostgresRepo) SellerActiveHolds(ctx context.Context, sellerID, currency string) ([]escrow.HoldView, error) {
	return r.Holds.SellerActiveHolds(ctx, sellerID, currency)
}

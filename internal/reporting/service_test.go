package reporting

import (
	"context"
	"testing"
	"time"

	"marketplace-platform/internal/escrow"
	"marketplace-platform/internal/ledger"
	"marketplace-platform/internal/orders"

	"github.com/stretchr/testify/require"
)

func TestFinanceSummary(t *testing.T) {
	ordersRepo := orders.NewMemoryRepo()
	ledgerRepo := ledger.NewMemoryRepo()
	holds := escrow.NewMemoryStore(ordersRepo, ledgerRepo)
	svc := NewService(&MemoryRepo{Ledger: ledgerRepo, Holds: holds})
	ctx := context.Background()
	now := time.Now().UTC()

	ordersRepo.Put(orders.Order{ID: "o1", BuyerID: "b1", SellerID: "s1", AmountCents: 4000, Currency: "NGN", Status: orders.StatusConfirmed, CreatedAt: now})
	created, err := holds.OpenHold(ctx, escrow.Hold{ID: "h1", OrderID: "o1", Status: escrow.HoldActive, CreatedAt: now})
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, ledgerRepo.Append(ctx, ledger.Entry{
		ID: "e1", SellerID: "s1", OrderID: "o0", Type: ledger.TypePayout,
		AmountCents: 9000, Currency: "NGN", Status: ledger.StatusCompleted, CreatedAt: now,
	}))
	require.NoError(t, ledgerRepo.Append(ctx, ledger.Entry{
		ID: "e2", SellerID: "s1", OrderID: "o0", Type: ledger.TypeRefund,
		AmountCents: -2000, Currency: "NGN", Status: ledger.StatusCompleted, CreatedAt: now,
	}))
	// pending entries are excluded from the realized balance
	require.NoError(t, ledgerRepo.Append(ctx, ledger.Entry{
		ID: "e3", SellerID: "s1", OrderID: "o1", Type: ledger.TypeRefund,
		AmountCents: -1000, Currency: "NGN", Status: ledger.StatusPending, CreatedAt: now,
	}))

	sum, err := svc.FinanceSummary(ctx, FinanceSummaryRequest{SellerID: "s1", Currency: "NGN"})
	require.NoError(t, err)
	require.Equal(t, int64(7000), sum.RealizedBalanceCents)
	require.Equal(t, int64(4000), sum.EscrowBalanceCents)
	require.Equal(t, 1, sum.ActiveHolds)
	require.NotNil(t, sum.NextReleaseAt)
	require.Equal(t, now.Add(escrow.ReleaseWindow), *sum.NextReleaseAt)
}

func TestFinanceSummary_Validation(t *testing.T) {
	svc := NewService(&MemoryRepo{Ledger: ledger.NewMemoryRepo()})

	_, err := svc.FinanceSummary(context.Background(), FinanceSummaryRequest{Currency: "NGN"})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.FinanceSummary(context.Background(), FinanceSummaryRequest{SellerID: "s1", Currency: "naira"})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

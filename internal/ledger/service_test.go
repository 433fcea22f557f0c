package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppend_ValidatesEntry(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	_, err := svc.Append(ctx, Entry{OrderID: "o1", Type: TypePayout, Currency: "NGN"})
	require.Error(t, err, "missing seller_id")

	_, err = svc.Append(ctx, Entry{SellerID: "s1", OrderID: "o1", Currency: "NGN"})
	require.Error(t, err, "missing type")

	_, err = svc.Append(ctx, Entry{SellerID: "s1", OrderID: "o1", Type: TypePayout, Currency: "naira"})
	require.Error(t, err, "bad currency")
}

func TestAppend_DefaultsIDStatusTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0) }

	e, err := svc.Append(context.Background(), Entry{
		SellerID: "s1", OrderID: "o1", Type: TypePayout, AmountCents: 10000, Currency: "NGN",
	})
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)
	require.Equal(t, StatusPending, e.Status)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), e.CreatedAt)
}

func TestSellerBalance_SumsOnlyCompleted(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	entries := []Entry{
		{ID: "1", SellerID: "s1", OrderID: "o1", Type: TypePayout, AmountCents: 10000, Currency: "NGN", Status: StatusCompleted},
		{ID: "2", SellerID: "s1", OrderID: "o2", Type: TypeRefund, AmountCents: -4000, Currency: "NGN", Status: StatusCompleted},
		{ID: "3", SellerID: "s1", OrderID: "o3", Type: TypePayout, AmountCents: 9999, Currency: "NGN", Status: StatusPending},
		{ID: "4", SellerID: "s1", OrderID: "o4", Type: TypePayout, AmountCents: 500, Currency: "USD", Status: StatusCompleted},
		{ID: "5", SellerID: "s2", OrderID: "o5", Type: TypePayout, AmountCents: 777, Currency: "NGN", Status: StatusCompleted},
	}
	for _, e := range entries {
		require.NoError(t, repo.Append(ctx, e))
	}

	bal, err := svc.SellerBalance(ctx, "s1", "NGN")
	require.NoError(t, err)
	require.Equal(t, int64(6000), bal.AmountCents)
	require.Equal(t, "NGN", bal.Currency)
}

func TestComplete_GuardedTransition(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	e, err := svc.Append(ctx, Entry{SellerID: "s1", OrderID: "o1", Type: TypeRefund, AmountCents: -100, Currency: "NGN"})
	require.NoError(t, err)

	require.NoError(t, svc.Complete(ctx, e.ID))
	// second completion must not succeed
	require.Error(t, svc.Complete(ctx, e.ID))
}

func TestReversedTotal_CountsOnlyCompletedReversals(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	entries := []Entry{
		{ID: "1", SellerID: "s1", OrderID: "o1", Type: TypePayout, AmountCents: 10000, Currency: "NGN", Status: StatusCompleted},
		{ID: "2", SellerID: "s1", OrderID: "o1", Type: TypeRefund, AmountCents: -3000, Currency: "NGN", Status: StatusCompleted},
		{ID: "3", SellerID: "s1", OrderID: "o1", Type: TypeReturnApproved, AmountCents: -2000, Currency: "NGN", Status: StatusPending},
		{ID: "4", SellerID: "s1", OrderID: "o1", Type: TypeReturnRequest, AmountCents: 0, Currency: "NGN", Status: StatusCompleted},
	}
	for _, e := range entries {
		require.NoError(t, repo.Append(ctx, e))
	}

	total, err := svc.ReversedTotal(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, int64(3000), total)
}

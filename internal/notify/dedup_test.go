package notify

import (
	"context"
	"testing"
	"time"

	"marketplace-platform/internal/limiter"

	"github.com/stretchr/testify/require"
)

func TestDedupSinkSuppressesRepeatReturnEvents(t *testing.T) {
	rec := NewRecorder()
	sink := DedupSink{Next: rec, Marks: limiter.NewMemoryDeduplicator(), TTL: time.Minute}
	ctx := context.Background()

	e := ReturnEvent{RefundID: "r1", OrderID: "o1", BuyerID: "b1", SellerID: "s1"}
	sink.ReturnRequested(ctx, e)
	sink.ReturnRequested(ctx, e)
	sink.ReturnRejected(ctx, e)
	sink.ReturnRejected(ctx, e)

	// a different refund is not suppressed
	sink.ReturnRequested(ctx, ReturnEvent{RefundID: "r2", OrderID: "o2"})

	require.Equal(t, []string{EventReturnRequested, EventReturnRejected, EventReturnRequested}, rec.Types())
}

func TestDedupSinkPassesCartAndOrderEventsThrough(t *testing.T) {
	rec := NewRecorder()
	sink := DedupSink{Next: rec, Marks: limiter.NewMemoryDeduplicator()}
	ctx := context.Background()

	sink.CartItemAdded(ctx, CartEvent{BuyerID: "b1", ListingID: "l1", Quantity: 1})
	sink.CartItemAdded(ctx, CartEvent{BuyerID: "b1", ListingID: "l1", Quantity: 1})
	sink.OrdersPlaced(ctx, OrdersPlacedEvent{BuyerID: "b1"})
	sink.OrdersPlaced(ctx, OrdersPlacedEvent{BuyerID: "b1"})

	require.Len(t, rec.Events(), 4)
}

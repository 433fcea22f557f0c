package notify

import (
	"context"
	"log/slog"
	"time"

	"marketplace-platform/internal/limiter"
)

// DedupSink suppresses repeat return notifications for the same refund so a
// retried request does not notify the seller or buyer twice. Cart and order
// events pass through untouched; their consumers are idempotent on event id.
// Best effort: a dedup backend failure lets the event through.
type DedupSink struct {
	Next  Sink
	Marks limiter.Deduplicator
	TTL   time.Duration
	Log   *slog.Logger
}

func (s DedupSink) allow(ctx context.Context, key string) bool {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	seen, err := s.Marks.Seen(ctx, key, ttl)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("event dedup unavailable", "error", err)
		}
		return true
	}
	return !seen
}

func (s DedupSink) CartItemAdded(ctx context.Context, e CartEvent)   { s.Next.CartItemAdded(ctx, e) }
func (s DedupSink) CartItemRemoved(ctx context.Context, e CartEvent) { s.Next.CartItemRemoved(ctx, e) }
func (s DedupSink) CartCleared(ctx context.Context, buyerID string)  { s.Next.CartCleared(ctx, buyerID) }
func (s DedupSink) OrdersPlaced(ctx context.Context, e OrdersPlacedEvent) {
	s.Next.OrdersPlaced(ctx, e)
}

func (s DedupSink) ReturnRequested(ctx context.Context, e ReturnEvent) {
	if s.allow(ctx, EventReturnRequested+":"+e.RefundID) {
		s.Next.ReturnRequested(ctx, e)
	}
}

func (s DedupSink) ReturnRejected(ctx context.Context, e ReturnEvent) {
	if s.allow(ctx, EventReturnRejected+":"+e.RefundID) {
		s.Next.ReturnRejected(ctx, e)
	}
}

package notify

import "context"

// Sink receives domain events for out-of-band delivery (emails, dashboards,
// downstream consumers). Implementations must never block the calling request
// path and must swallow delivery failures; callers treat every method as
// fire-and-forget.
type Sink interface {
	CartItemAdded(ctx context.Context, e CartEvent)
	CartItemRemoved(ctx context.Context, e CartEvent)
	CartCleared(ctx context.Context, buyerID string)
	OrdersPlaced(ctx context.Context, e OrdersPlacedEvent)
	ReturnRequested(ctx context.Context, e ReturnEvent)
	ReturnRejected(ctx context.Context, e ReturnEvent)
}

// Noop discards every event. Used when Kafka is not configured.
type Noop struct{}

func (Noop) CartItemAdded(context.Context, CartEvent)        {}
func (Noop) CartItemRemoved(context.Context, CartEvent)      {}
func (Noop) CartCleared(context.Context, string)             {}
func (Noop) OrdersPlaced(context.Context, OrdersPlacedEvent) {}
func (Noop) ReturnRequested(context.Context, ReturnEvent)    {}
func (Noop) ReturnRejected(context.Context, ReturnEvent)     {}

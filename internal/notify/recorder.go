package notify

import (
	"context"
	"sync"
)

// Recorder captures events in memory for test assertions.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

type Recorded struct {
	Type    string
	Cart    CartEvent
	Orders  OrdersPlacedEvent
	Return  ReturnEvent
	BuyerID string
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) record(e Recorded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything captured so far.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns just the event type names, in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *Recorder) CartItemAdded(_ context.Context, e CartEvent) {
	r.record(Recorded{Type: EventCartItemAdded, Cart: e})
}

func (r *Recorder) CartItemRemoved(_ context.Context, e CartEvent) {
	r.record(Recorded{Type: EventCartItemRemoved, Cart: e})
}

func (r *Recorder) CartCleared(_ context.Context, buyerID string) {
	r.record(Recorded{Type: EventCartCleared, BuyerID: buyerID})
}

func (r *Recorder) OrdersPlaced(_ context.Context, e OrdersPlacedEvent) {
	r.record(Recorded{Type: EventOrdersPlaced, Orders: e})
}

func (r *Recorder) ReturnRequested(_ context.Context, e ReturnEvent) {
	r.record(Recorded{Type: EventReturnRequested, Return: e})
}

func (r *Recorder) ReturnRejected(_ context.Context, e ReturnEvent) {
	r.record(Recorded{Type: EventReturnRejected, Return: e})
}

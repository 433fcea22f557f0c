package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const producerName = "marketplace-api"

// KafkaSink publishes envelopes to a single topic, keyed by buyer or seller id
// so each recipient's events stay ordered. The writer runs async; the drain
// goroutine logs write failures and drops the message rather than surfacing
// the error to the request path.
type KafkaSink struct {
	w       *kafka.Writer
	log     *slog.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewKafkaSink(brokers []string, topic string, log *slog.Logger) *KafkaSink {
	return &KafkaSink{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		log:     log,
		inbox:   make(chan kafka.Message, 256),
		closeCh: make(chan struct{}),
	}
}

// Start runs the drain loop until ctx is canceled, then flushes the inbox.
func (s *KafkaSink) Start(ctx context.Context) {
	go func() {
		defer close(s.closeCh)
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case m := <-s.inbox:
						s.write(m)
					default:
						if err := s.w.Close(); err != nil {
							s.log.Error("kafka writer close", "error", err)
						}
						return
					}
				}
			case m := <-s.inbox:
				s.write(m)
			}
		}
	}()
}

func (s *KafkaSink) WaitClosed() { <-s.closeCh }

func (s *KafkaSink) write(m kafka.Message) {
	if err := s.w.WriteMessages(context.Background(), m); err != nil {
		s.log.Error("kafka publish failed", "error", err, "key", string(m.Key))
	}
}

func (s *KafkaSink) publish(eventType, key string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("event payload marshal", "event_type", eventType, "error", err)
		return
	}
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     producerName,
		Payload:      body,
	}
	value, err := json.Marshal(env)
	if err != nil {
		s.log.Error("event envelope marshal", "event_type", eventType, "error", err)
		return
	}
	select {
	case s.inbox <- kafka.Message{Key: []byte(key), Value: value, Time: env.OccurredAt}:
	default:
		s.log.Warn("event dropped, inbox full", "event_type", eventType, "key", key)
	}
}

func (s *KafkaSink) CartItemAdded(_ context.Context, e CartEvent) {
	s.publish(EventCartItemAdded, e.BuyerID, e)
}

func (s *KafkaSink) CartItemRemoved(_ context.Context, e CartEvent) {
	s.publish(EventCartItemRemoved, e.BuyerID, e)
}

func (s *KafkaSink) CartCleared(_ context.Context, buyerID string) {
	s.publish(EventCartCleared, buyerID, CartEvent{BuyerID: buyerID})
}

func (s *KafkaSink) OrdersPlaced(_ context.Context, e OrdersPlacedEvent) {
	s.publish(EventOrdersPlaced, e.BuyerID, e)
}

func (s *KafkaSink) ReturnRequested(_ context.Context, e ReturnEvent) {
	s.publish(EventReturnRequested, e.SellerID, e)
}

func (s *KafkaSink) ReturnRejected(_ context.Context, e ReturnEvent) {
	s.publish(EventReturnRejected, e.BuyerID, e)
}

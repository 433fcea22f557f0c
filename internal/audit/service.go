package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to buyers or sellers by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogEscrowRelease records a payout release, manual or swept.
func (s *Service) LogEscrowRelease(ctx context.Context, actorUserID, actorRole, ip, orderID, holdID, message string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeEscrowRelease,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		OrderID:     orderID,
		HoldID:      holdID,
		Message:     message,
	})
}

// LogRefundDecision records a refund/return state transition.
func (s *Service) LogRefundDecision(ctx context.Context, actorUserID, actorRole, ip, orderID, refundID, message string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeRefundDecision,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		OrderID:     orderID,
		RefundID:    refundID,
		Message:     message,
	})
}

// LogSweep records a background sweep run and its effect.
func (s *Service) LogSweep(ctx context.Context, message, metadata string) error {
	return s.Append(ctx, Event{
		Type:     EventTypeSweep,
		Message:  message,
		Metadata: metadata,
	})
}

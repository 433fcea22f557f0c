package audit

import "time"

// Event is an immutable, append-only audit log record for money-path state
// transitions: every hold release, refund decision and admin/sweeper action
// leaves one.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; do not block money flows on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress should capture the original client IP when available.
	// Prefer X-Forwarded-For processing at the edge; store the resolved client IP here.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers (optional, depending on the event type).
	OrderID  string `json:"order_id,omitempty" db:"order_id"`
	RefundID string `json:"refund_id,omitempty" db:"refund_id"`
	HoldID   string `json:"hold_id,omitempty" db:"hold_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeEscrowRelease  EventType = "escrow_release"
	EventTypeRefundDecision EventType = "refund_decision"
	EventTypeSweep          EventType = "sweep"
	EventTypeAdminAction    EventType = "admin_action"
)

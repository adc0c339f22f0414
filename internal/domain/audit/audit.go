package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names recorded in the audit trail.
const (
	ActionCommissionCreated = "commission.created"
	ActionFeeCreated        = "registration_fee.created"
	ActionProofSubmitted    = "payment.proof_submitted"
	ActionPaymentVerified   = "payment.verified"
	ActionPaymentRejected   = "payment.rejected"
	ActionPaymentReset      = "payment.reset"
	ActionRefundCreated     = "refund.created"
	ActionRefundAdvanced    = "refund.advanced"
	ActionRejectionNoRefund = "rejection.refund_free"
)

// Event is one append-only audit entry for a mutating action.
type Event struct {
	ID         uuid.UUID
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	CreatedAt  time.Time
}

func NewEvent(actor, action, entityType, entityID string, details map[string]any) *Event {
	if actor == "" {
		actor = "system"
	}
	return &Event{
		ID:         uuid.New(),
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
}

// Trail is where audit events are appended. Appends are best-effort from the
// caller's point of view: a failure never rolls back the action being audited.
type Trail interface {
	Append(ctx context.Context, e *Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Append(context.Context, *Event) error { return nil }

package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a notification intent waiting to be relayed. It is written in the
// same transaction as the state change that caused it.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string // notification template
	Recipient     string
	Payload       map[string]any
	Status        Status
	RetryCount    int
	MaxRetries    int
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

// Notification templates.
const (
	EventProofSubmitted  = "payment.proof_submitted"
	EventPaymentVerified = "payment.verified"
	EventPaymentRejected = "payment.rejected"
	EventRefundRequested = "refund.requested"
	EventRefundAdvanced  = "refund.status_changed"
	EventRefundCompleted = "refund.completed"
)

func NewEntry(aggregateType string, aggregateID uuid.UUID, eventType, recipient string, payload map[string]any) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Recipient:     recipient,
		Payload:       payload,
		Status:        StatusPending,
		RetryCount:    0,
		MaxRetries:    5,
		CreatedAt:     time.Now(),
	}
}

// Exhausted reports whether the relay should stop retrying the entry.
func (e *Entry) Exhausted() bool {
	return e.RetryCount >= e.MaxRetries
}

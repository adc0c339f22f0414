package refund

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tourneyhub/settlement/internal/domain/errors"
)

// Kind distinguishes the two refund variants. Both share one state machine.
type Kind string

const (
	KindTournamentCommission Kind = "tournament_commission"
	KindPlayerRegistration   Kind = "player_registration"
)

// ParseKind accepts the canonical kind names.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindTournamentCommission:
		return KindTournamentCommission, nil
	case KindPlayerRegistration:
		return KindPlayerRegistration, nil
	}
	return "", errors.NewDomainError("invalid_refund_kind", "unknown refund kind "+s, errors.ErrInvalidRefundKind)
}

// Status is the refund workflow state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusProcessing, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// ActiveStatuses are the non-terminal statuses. A subject has at most one request in these.
var ActiveStatuses = []Status{StatusPending, StatusApproved, StatusProcessing}

// Subject identifies what a refund is for.
type Subject struct {
	Kind           Kind
	TournamentID   string
	OrganizerID    string // tournament refunds
	PlayerID       string // registration refunds
	RegistrationID string // registration refunds
	PaymentID      *uuid.UUID
}

// Key is the stable uniqueness key for active-request checks.
func (s Subject) Key() string {
	if s.Kind == KindPlayerRegistration {
		payment := ""
		if s.PaymentID != nil {
			payment = s.PaymentID.String()
		}
		return fmt.Sprintf("registration:%s:%s", s.RegistrationID, payment)
	}
	return fmt.Sprintf("tournament:%s:%s", s.TournamentID, s.OrganizerID)
}

// Validate checks the identity fields required by the kind.
func (s Subject) Validate() error {
	if strings.TrimSpace(s.TournamentID) == "" {
		return errors.NewValidationError("tournament_id", "cannot be empty")
	}
	switch s.Kind {
	case KindTournamentCommission:
		if strings.TrimSpace(s.OrganizerID) == "" {
			return errors.NewValidationError("organizer_id", "cannot be empty")
		}
	case KindPlayerRegistration:
		if strings.TrimSpace(s.RegistrationID) == "" {
			return errors.NewValidationError("registration_id", "cannot be empty")
		}
		if s.PaymentID == nil {
			return errors.NewValidationError("payment_id", "cannot be empty")
		}
	default:
		return errors.NewDomainError("invalid_refund_kind", "unknown refund kind "+string(s.Kind), errors.ErrInvalidRefundKind)
	}
	return nil
}

// Request is a tracked refund owed to an organizer or player.
type Request struct {
	ID uuid.UUID
	Subject
	CommissionID        *uuid.UUID
	CommissionAmount    int64 // cents; tournament refunds
	RefundAmount        int64 // cents
	Reason              string
	Status              Status
	AdminNotes          *string
	RefundMethod        *string
	RefundTransactionID *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CompletedAt         *time.Time
}

// NewRequest creates a pending refund. paidAmount is what was actually paid on
// the underlying ledger row and caps the refund.
func NewRequest(subject Subject, refundAmount, paidAmount int64, reason string) (*Request, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	if refundAmount <= 0 {
		return nil, errors.NewValidationError("refund_amount", "must be greater than 0")
	}
	if refundAmount > paidAmount {
		return nil, errors.NewValidationError("refund_amount", "cannot exceed the amount paid")
	}

	now := time.Now().UTC()
	return &Request{
		ID:           uuid.New(),
		Subject:      subject,
		RefundAmount: refundAmount,
		Reason:       reason,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusApproved, StatusRejected},
	StatusApproved:   {StatusProcessing},
	StatusProcessing: {StatusCompleted},
	StatusRejected:   {},
	StatusCompleted:  {},
}

// CanTransitionTo checks the linear refund workflow.
func (r *Request) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[r.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Advance is the input for a workflow step.
type Advance struct {
	Status              Status
	AdminNotes          string
	RefundMethod        string
	RefundTransactionID string
}

// Apply moves the request to a.Status. Completion requires a refund method and
// a transaction id, either supplied now or recorded earlier.
func (r *Request) Apply(a Advance, now time.Time) error {
	if !a.Status.Valid() {
		return errors.NewValidationError("status", "unknown refund status "+string(a.Status))
	}
	if !r.CanTransitionTo(a.Status) {
		return errors.NewTransitionError("refund request", string(r.Status), string(a.Status))
	}

	method := coalesce(a.RefundMethod, r.RefundMethod)
	txID := coalesce(a.RefundTransactionID, r.RefundTransactionID)
	if a.Status == StatusCompleted {
		if method == "" {
			return errors.NewValidationError("refund_method", "required to complete a refund")
		}
		if txID == "" {
			return errors.NewValidationError("refund_transaction_id", "required to complete a refund")
		}
	}

	r.Status = a.Status
	r.UpdatedAt = now
	if a.AdminNotes != "" {
		notes := a.AdminNotes
		r.AdminNotes = &notes
	}
	if method != "" {
		r.RefundMethod = &method
	}
	if txID != "" {
		r.RefundTransactionID = &txID
	}
	if a.Status == StatusCompleted {
		r.CompletedAt = &now
	}
	return nil
}

func coalesce(v string, existing *string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	if existing != nil {
		return *existing
	}
	return ""
}

package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/tourneyhub/settlement/internal/domain/errors"
)

// Decision is an admin verdict on a paid ledger row.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// TargetStatus maps a decision to the resulting payment status.
func (d Decision) TargetStatus() (PaymentStatus, error) {
	switch d {
	case DecisionApproved:
		return StatusVerified, nil
	case DecisionRejected:
		return StatusFailed, nil
	}
	return "", errors.NewValidationError("decision", "must be approved or rejected")
}

// VerificationRecord is the append-only trace of one verify action.
type VerificationRecord struct {
	ID          uuid.UUID
	PaymentID   uuid.UUID
	PaymentType PaymentType
	VerifiedBy  string
	VerifiedAt  time.Time
	Status      Decision
	Notes       string
}

// NewVerificationRecord builds the record for a committed decision.
func NewVerificationRecord(paymentID uuid.UUID, paymentType PaymentType, verifier string, at time.Time, decision Decision, notes string) *VerificationRecord {
	return &VerificationRecord{
		ID:          uuid.New(),
		PaymentID:   paymentID,
		PaymentType: paymentType,
		VerifiedBy:  verifier,
		VerifiedAt:  at,
		Status:      decision,
		Notes:       notes,
	}
}

package settlement

import (
	"strings"
	"time"

	"github.com/tourneyhub/settlement/internal/domain/errors"
)

// PaymentStatus is the settlement state of a ledger row.
type PaymentStatus string

const (
	StatusPending  PaymentStatus = "pending" // awaiting payment
	StatusPaid     PaymentStatus = "paid"    // proof submitted, awaiting verification
	StatusVerified PaymentStatus = "verified"
	StatusFailed   PaymentStatus = "failed"
)

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusVerified, StatusFailed:
		return true
	}
	return false
}

// MoneyReceived reports whether funds changed hands for a row in this status.
func (s PaymentStatus) MoneyReceived() bool {
	return s == StatusPaid || s == StatusVerified
}

// PaymentType selects which ledger a payment id refers to.
type PaymentType string

const (
	TypeTournamentCommission PaymentType = "tournament_commission"
	TypeRegistrationFee      PaymentType = "registration_fee"
)

// ParsePaymentType accepts the canonical names.
func ParsePaymentType(s string) (PaymentType, error) {
	switch PaymentType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeTournamentCommission:
		return TypeTournamentCommission, nil
	case TypeRegistrationFee:
		return TypeRegistrationFee, nil
	}
	return "", errors.NewDomainError("invalid_payment_type", "unknown payment type "+s, errors.ErrInvalidPaymentType)
}

// Settlement holds the payment-status state machine shared by commissions and fees.
type Settlement struct {
	Status        PaymentStatus
	PaymentMethod *string
	PaymentDate   *time.Time
	ProofURL      *string
	VerifiedBy    *string
	VerifiedAt    *time.Time
	UpdatedAt     time.Time
}

var transitions = map[PaymentStatus][]PaymentStatus{
	StatusPending:  {StatusPaid},
	StatusPaid:     {StatusVerified, StatusFailed},
	StatusVerified: {},
	StatusFailed:   {}, // reset to pending only through ResetFailed
}

// CanTransitionTo checks the forward-only transition table.
func (s *Settlement) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range transitions[s.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s *Settlement) transitionTo(next PaymentStatus, now time.Time) error {
	if !s.CanTransitionTo(next) {
		return errors.NewTransitionError("payment", string(s.Status), string(next))
	}
	s.Status = next
	s.UpdatedAt = now
	return nil
}

// SubmitProof moves pending -> paid and stamps the payment date.
func (s *Settlement) SubmitProof(proofURL, method string, now time.Time) error {
	if strings.TrimSpace(proofURL) == "" {
		return errors.NewValidationError("payment_proof_url", "cannot be empty")
	}
	if err := s.transitionTo(StatusPaid, now); err != nil {
		return err
	}
	s.ProofURL = &proofURL
	if method != "" {
		s.PaymentMethod = &method
	}
	s.PaymentDate = &now
	return nil
}

// Verify records the admin decision on a paid row.
func (s *Settlement) Verify(decision Decision, verifierID string, now time.Time) error {
	if strings.TrimSpace(verifierID) == "" {
		return errors.NewValidationError("verified_by", "cannot be empty")
	}
	next, err := decision.TargetStatus()
	if err != nil {
		return err
	}
	if err := s.transitionTo(next, now); err != nil {
		return err
	}
	s.VerifiedBy = &verifierID
	s.VerifiedAt = &now
	return nil
}

// ResetFailed is the admin override failed -> pending. Payment and verification stamps are cleared.
func (s *Settlement) ResetFailed(now time.Time) error {
	if s.Status != StatusFailed {
		return errors.NewTransitionError("payment", string(s.Status), string(StatusPending))
	}
	s.Status = StatusPending
	s.PaymentMethod = nil
	s.PaymentDate = nil
	s.ProofURL = nil
	s.VerifiedBy = nil
	s.VerifiedAt = nil
	s.UpdatedAt = now
	return nil
}

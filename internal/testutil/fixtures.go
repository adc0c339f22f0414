package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tourneyhub/settlement/internal/domain/settlement"
)

// NewTestCommission builds a 5% commission row on total cents in the given status.
// Paid and verified rows carry the stamps those transitions would have set.
func NewTestCommission(tournamentID, organizerID string, total int64, status settlement.PaymentStatus) *settlement.TournamentCommission {
	c, err := settlement.NewTournamentCommission(tournamentID, organizerID, total, decimal.NewFromInt(5))
	if err != nil {
		panic(err)
	}
	stamp(&c.Settlement, status)
	return c
}

// NewTestFee builds a 10% registration fee row in the given status.
func NewTestFee(tournamentID, playerID, registrationID string, fee int64, status settlement.PaymentStatus) *settlement.PlayerRegistrationFee {
	f, err := settlement.NewPlayerRegistrationFee(tournamentID, playerID, registrationID, fee, decimal.NewFromInt(10))
	if err != nil {
		panic(err)
	}
	stamp(&f.Settlement, status)
	return f
}

func stamp(s *settlement.Settlement, status settlement.PaymentStatus) {
	now := time.Now().UTC()
	s.Status = status
	if status == settlement.StatusPaid || status == settlement.StatusVerified || status == settlement.StatusFailed {
		s.ProofURL = StringPtr("https://proofs.example.com/receipt.png")
		s.PaymentMethod = StringPtr("bank_transfer")
		s.PaymentDate = &now
	}
	if status == settlement.StatusVerified || status == settlement.StatusFailed {
		s.VerifiedBy = StringPtr("admin-1")
		s.VerifiedAt = &now
	}
}

func StringPtr(s string) *string {
	return &s
}

func UUIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

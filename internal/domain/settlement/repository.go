package settlement

import (
	"context"

	"github.com/google/uuid"
)

// CommissionRepository persists tournament commissions.
type CommissionRepository interface {
	// Create inserts a new commission row
	Create(ctx context.Context, c *TournamentCommission) error

	// GetByID retrieves a commission by ID
	GetByID(ctx context.Context, id uuid.UUID) (*TournamentCommission, error)

	// GetLatestByTournament returns the most recently created row for a tournament
	GetLatestByTournament(ctx context.Context, tournamentID string) (*TournamentCommission, error)

	// List returns rows in creation order (oldest first)
	List(ctx context.Context, filter ListFilter) ([]*TournamentCommission, error)

	// UpdateSettlement writes s only if the stored status still equals expected
	UpdateSettlement(ctx context.Context, id uuid.UUID, expected PaymentStatus, s Settlement) error
}

// FeeRepository persists player registration fees.
type FeeRepository interface {
	Create(ctx context.Context, f *PlayerRegistrationFee) error
	GetByID(ctx context.Context, id uuid.UUID) (*PlayerRegistrationFee, error)
	List(ctx context.Context, filter ListFilter) ([]*PlayerRegistrationFee, error)
	UpdateSettlement(ctx context.Context, id uuid.UUID, expected PaymentStatus, s Settlement) error
}

// VerificationRepository is the append-only store of verification records.
type VerificationRepository interface {
	Append(ctx context.Context, r *VerificationRecord) error
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*VerificationRecord, error)
}

// ListFilter narrows ledger listings.
type ListFilter struct {
	Status       *PaymentStatus
	TournamentID *string
}

// Matches applies the filter to a row in memory.
func (f ListFilter) Matches(tournamentID string, status PaymentStatus) bool {
	if f.Status != nil && *f.Status != status {
		return false
	}
	if f.TournamentID != nil && *f.TournamentID != tournamentID {
		return false
	}
	return true
}

package settlement

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tourneyhub/settlement/internal/domain/errors"
)

// TournamentCommission is the platform's cut of a tournament's gross revenue.
// CommissionAmount is fixed at creation.
type TournamentCommission struct {
	ID                   uuid.UUID
	TournamentID         string
	OrganizerID          string
	TotalAmount          int64 // cents
	CommissionPercentage decimal.Decimal
	CommissionAmount     int64 // cents
	Settlement
	CreatedAt time.Time
}

// NewTournamentCommission creates a pending commission obligation.
func NewTournamentCommission(tournamentID, organizerID string, totalAmount int64, pct decimal.Decimal) (*TournamentCommission, error) {
	if strings.TrimSpace(tournamentID) == "" {
		return nil, errors.NewValidationError("tournament_id", "cannot be empty")
	}
	if strings.TrimSpace(organizerID) == "" {
		return nil, errors.NewValidationError("organizer_id", "cannot be empty")
	}
	commission, err := ComputeCommission(totalAmount, pct)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &TournamentCommission{
		ID:                   uuid.New(),
		TournamentID:         tournamentID,
		OrganizerID:          organizerID,
		TotalAmount:          totalAmount,
		CommissionPercentage: pct,
		CommissionAmount:     commission,
		Settlement:           Settlement{Status: StatusPending, UpdatedAt: now},
		CreatedAt:            now,
	}, nil
}

package settlement

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tourneyhub/settlement/internal/domain/errors"
)

// PlayerRegistrationFee is a player's entry fee and the platform's cut of it.
type PlayerRegistrationFee struct {
	ID                   uuid.UUID
	TournamentID         string
	PlayerID             string
	RegistrationID       string
	RegistrationFee      int64 // cents
	CommissionPercentage decimal.Decimal
	CommissionAmount     int64 // cents, <= RegistrationFee
	TotalAmount          int64 // cents paid by the player
	Settlement
	CreatedAt time.Time
}

// NewPlayerRegistrationFee creates a pending fee. The player pays the registration fee in full;
// the commission is carved out of it.
func NewPlayerRegistrationFee(tournamentID, playerID, registrationID string, fee int64, pct decimal.Decimal) (*PlayerRegistrationFee, error) {
	if strings.TrimSpace(tournamentID) == "" {
		return nil, errors.NewValidationError("tournament_id", "cannot be empty")
	}
	if strings.TrimSpace(playerID) == "" {
		return nil, errors.NewValidationError("player_id", "cannot be empty")
	}
	if strings.TrimSpace(registrationID) == "" {
		return nil, errors.NewValidationError("registration_id", "cannot be empty")
	}
	if fee < 0 {
		return nil, errors.NewValidationError("registration_fee", "cannot be negative")
	}
	commission, err := ComputeCommission(fee, pct)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &PlayerRegistrationFee{
		ID:                   uuid.New(),
		TournamentID:         tournamentID,
		PlayerID:             playerID,
		RegistrationID:       registrationID,
		RegistrationFee:      fee,
		CommissionPercentage: pct,
		CommissionAmount:     commission,
		TotalAmount:          fee,
		Settlement:           Settlement{Status: StatusPending, UpdatedAt: now},
		CreatedAt:            now,
	}, nil
}

package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
)

// Payment is a ledger row addressed by payment type and id: exactly one of
// Commission or Fee is set.
type Payment struct {
	Type       settlement.PaymentType
	Commission *settlement.TournamentCommission
	Fee        *settlement.PlayerRegistrationFee
}

func (p Payment) ID() uuid.UUID {
	if p.Commission != nil {
		return p.Commission.ID
	}
	return p.Fee.ID
}

func (p Payment) TournamentID() string {
	if p.Commission != nil {
		return p.Commission.TournamentID
	}
	return p.Fee.TournamentID
}

// Payer is the organizer for a commission and the player for a fee.
func (p Payment) Payer() string {
	if p.Commission != nil {
		return p.Commission.OrganizerID
	}
	return p.Fee.PlayerID
}

// AmountDue is what the payer owes on this row.
func (p Payment) AmountDue() int64 {
	if p.Commission != nil {
		return p.Commission.CommissionAmount
	}
	return p.Fee.TotalAmount
}

// State returns the settlement state by value.
func (p Payment) State() settlement.Settlement {
	if p.Commission != nil {
		return p.Commission.Settlement
	}
	return p.Fee.Settlement
}

func (p Payment) setState(s settlement.Settlement) {
	if p.Commission != nil {
		p.Commission.Settlement = s
		return
	}
	p.Fee.Settlement = s
}

// PaymentResult is returned by operations that change a ledger row.
type PaymentResult struct {
	Payment  Payment
	Warnings []string
}

// paymentStore reads and conditionally writes ledger rows of either type.
type paymentStore struct {
	commissions settlement.CommissionRepository
	fees        settlement.FeeRepository
	guard       *StoreGuard
}

func (s paymentStore) load(ctx context.Context, t settlement.PaymentType, id uuid.UUID) (Payment, error) {
	switch t {
	case settlement.TypeTournamentCommission:
		c, err := Read(ctx, s.guard, "store.get_commission", func(ctx context.Context) (*settlement.TournamentCommission, error) {
			return s.commissions.GetByID(ctx, id)
		})
		if err != nil {
			return Payment{}, err
		}
		return Payment{Type: t, Commission: c}, nil
	case settlement.TypeRegistrationFee:
		f, err := Read(ctx, s.guard, "store.get_registration_fee", func(ctx context.Context) (*settlement.PlayerRegistrationFee, error) {
			return s.fees.GetByID(ctx, id)
		})
		if err != nil {
			return Payment{}, err
		}
		return Payment{Type: t, Fee: f}, nil
	}
	return Payment{}, domainErrors.NewDomainError("invalid_payment_type", "unknown payment type "+string(t), domainErrors.ErrInvalidPaymentType)
}

// update writes next only if the stored status still equals expected. It must
// run inside the caller's guarded write.
func (s paymentStore) update(ctx context.Context, p Payment, expected settlement.PaymentStatus, next settlement.Settlement) error {
	if p.Commission != nil {
		return s.commissions.UpdateSettlement(ctx, p.Commission.ID, expected, next)
	}
	return s.fees.UpdateSettlement(ctx, p.Fee.ID, expected, next)
}

func isConflict(err error) bool {
	return errors.Is(err, domainErrors.ErrConcurrentModification)
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tourneyhub/settlement/internal/domain/audit"
	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/outbox"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
	"github.com/tourneyhub/settlement/internal/infrastructure/observability"
)

// recipientAdmins addresses notifications to the admin verification queue.
const recipientAdmins = "admins"

// LedgerService owns creation of commission obligations and the
// pending -> paid transition.
type LedgerService struct {
	stores   Stores
	payments paymentStore
	guard    *StoreGuard
	audit    *auditRecorder
	metrics  *observability.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewLedgerService(stores Stores, guard *StoreGuard, metrics *observability.Metrics, logger zerolog.Logger) *LedgerService {
	return &LedgerService{
		stores:   stores,
		payments: paymentStore{commissions: stores.Commissions, fees: stores.Fees, guard: guard},
		guard:    guard,
		audit:    newAuditRecorder(stores, metrics, logger),
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateCommissionRequest struct {
	TournamentID string
	OrganizerID  string
	TotalAmount  int64 // in cents
	Percentage   decimal.Decimal
	Actor        string
}

// CreateTournamentCommission records the platform's cut of a tournament in pending status.
func (s *LedgerService) CreateTournamentCommission(ctx context.Context, req CreateCommissionRequest) (*settlement.TournamentCommission, error) {
	c, err := settlement.NewTournamentCommission(req.TournamentID, req.OrganizerID, req.TotalAmount, req.Percentage)
	if err != nil {
		return nil, err
	}

	if err := s.guard.Write(ctx, "store.create_commission", func(ctx context.Context) error {
		return s.stores.Commissions.Create(ctx, c)
	}); err != nil {
		return nil, err
	}

	s.metrics.LedgerEntryCreated(string(settlement.TypeTournamentCommission))
	s.audit.event(ctx, audit.NewEvent(req.Actor, audit.ActionCommissionCreated, string(settlement.TypeTournamentCommission), c.ID.String(), map[string]any{
		"tournament_id":     c.TournamentID,
		"organizer_id":      c.OrganizerID,
		"total_amount":      c.TotalAmount,
		"percentage":        c.CommissionPercentage.String(),
		"commission_amount": c.CommissionAmount,
	}))
	return c, nil
}

type CreateFeeRequest struct {
	TournamentID    string
	PlayerID        string
	RegistrationID  string
	RegistrationFee int64 // in cents
	Percentage      decimal.Decimal
	Actor           string
}

// CreatePlayerRegistrationFee records a player's entry fee in pending status.
func (s *LedgerService) CreatePlayerRegistrationFee(ctx context.Context, req CreateFeeRequest) (*settlement.PlayerRegistrationFee, error) {
	f, err := settlement.NewPlayerRegistrationFee(req.TournamentID, req.PlayerID, req.RegistrationID, req.RegistrationFee, req.Percentage)
	if err != nil {
		return nil, err
	}

	if err := s.guard.Write(ctx, "store.create_registration_fee", func(ctx context.Context) error {
		return s.stores.Fees.Create(ctx, f)
	}); err != nil {
		return nil, err
	}

	s.metrics.LedgerEntryCreated(string(settlement.TypeRegistrationFee))
	s.audit.event(ctx, audit.NewEvent(req.Actor, audit.ActionFeeCreated, string(settlement.TypeRegistrationFee), f.ID.String(), map[string]any{
		"tournament_id":     f.TournamentID,
		"player_id":         f.PlayerID,
		"registration_id":   f.RegistrationID,
		"registration_fee":  f.RegistrationFee,
		"commission_amount": f.CommissionAmount,
	}))
	return f, nil
}

type SubmitProofRequest struct {
	Type          settlement.PaymentType
	ID            uuid.UUID
	ProofURL      string
	PaymentMethod string
	Actor         string
}

// SubmitPaymentProof moves a pending row to paid. The status check is part of
// the write, so a concurrent submit surfaces as ErrConcurrentModification.
func (s *LedgerService) SubmitPaymentProof(ctx context.Context, req SubmitProofRequest) (*PaymentResult, error) {
	p, err := s.payments.load(ctx, req.Type, req.ID)
	if err != nil {
		return nil, err
	}

	current := p.State()
	next := current
	if err := next.SubmitProof(req.ProofURL, req.PaymentMethod, s.now()); err != nil {
		return nil, err
	}

	err = s.guard.Write(ctx, "store.submit_proof", func(ctx context.Context) error {
		return s.stores.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.payments.update(txCtx, p, current.Status, next); err != nil {
				return err
			}
			return s.stores.Outbox.Insert(txCtx, outbox.NewEntry(string(p.Type), p.ID(), outbox.EventProofSubmitted, recipientAdmins, map[string]any{
				"payment_id":    p.ID().String(),
				"payment_type":  string(p.Type),
				"tournament_id": p.TournamentID(),
				"payer_id":      p.Payer(),
				"amount":        settlement.FormatCents(p.AmountDue()),
				"proof_url":     req.ProofURL,
			}))
		})
	})
	if err != nil {
		if isConflict(err) {
			s.metrics.ConcurrentModification("submit_proof")
		}
		return nil, err
	}
	p.setState(next)
	s.metrics.PaymentTransition(string(p.Type), string(next.Status))

	result := &PaymentResult{Payment: p}
	result.Warnings = appendWarning(result.Warnings, s.audit.event(ctx, audit.NewEvent(req.Actor, audit.ActionProofSubmitted, string(p.Type), p.ID().String(), map[string]any{
		"proof_url":      req.ProofURL,
		"payment_method": req.PaymentMethod,
	})))
	return result, nil
}

// GetCommissionForRefund returns the most recently created commission row for
// a tournament, or nil when the tournament has none.
func (s *LedgerService) GetCommissionForRefund(ctx context.Context, tournamentID string) (*settlement.TournamentCommission, error) {
	if tournamentID == "" {
		return nil, domainErrors.NewValidationError("tournament_id", "cannot be empty")
	}
	c, err := Read(ctx, s.guard, "store.latest_commission", func(ctx context.Context) (*settlement.TournamentCommission, error) {
		return s.stores.Commissions.GetLatestByTournament(ctx, tournamentID)
	})
	if errors.Is(err, domainErrors.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

func (s *LedgerService) GetCommission(ctx context.Context, id uuid.UUID) (*settlement.TournamentCommission, error) {
	p, err := s.payments.load(ctx, settlement.TypeTournamentCommission, id)
	if err != nil {
		return nil, err
	}
	return p.Commission, nil
}

func (s *LedgerService) GetRegistrationFee(ctx context.Context, id uuid.UUID) (*settlement.PlayerRegistrationFee, error) {
	p, err := s.payments.load(ctx, settlement.TypeRegistrationFee, id)
	if err != nil {
		return nil, err
	}
	return p.Fee, nil
}

// GetPayment loads a row of either type.
func (s *LedgerService) GetPayment(ctx context.Context, t settlement.PaymentType, id uuid.UUID) (Payment, error) {
	return s.payments.load(ctx, t, id)
}

// ListCommissions returns raw rows, duplicates included, oldest first.
func (s *LedgerService) ListCommissions(ctx context.Context, filter settlement.ListFilter) ([]*settlement.TournamentCommission, error) {
	return Read(ctx, s.guard, "store.list_commissions", func(ctx context.Context) ([]*settlement.TournamentCommission, error) {
		return s.stores.Commissions.List(ctx, filter)
	})
}

func (s *LedgerService) ListRegistrationFees(ctx context.Context, filter settlement.ListFilter) ([]*settlement.PlayerRegistrationFee, error) {
	return Read(ctx, s.guard, "store.list_registration_fees", func(ctx context.Context) ([]*settlement.PlayerRegistrationFee, error) {
		return s.stores.Fees.List(ctx, filter)
	})
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tourneyhub/settlement/internal/domain/audit"
	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/outbox"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
	"github.com/tourneyhub/settlement/internal/infrastructure/observability"
)

// VerificationService records admin decisions on paid ledger rows.
type VerificationService struct {
	stores   Stores
	payments paymentStore
	guard    *StoreGuard
	audit    *auditRecorder
	metrics  *observability.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewVerificationService(stores Stores, guard *StoreGuard, metrics *observability.Metrics, logger zerolog.Logger) *VerificationService {
	return &VerificationService{
		stores:   stores,
		payments: paymentStore{commissions: stores.Commissions, fees: stores.Fees, guard: guard},
		guard:    guard,
		audit:    newAuditRecorder(stores, metrics, logger),
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type VerifyRequest struct {
	Type       settlement.PaymentType
	ID         uuid.UUID
	Decision   settlement.Decision
	VerifierID string
	Notes      string
}

type VerifyResult struct {
	PaymentResult
	Record *settlement.VerificationRecord
}

// VerifyPayment moves a paid row to verified or failed. The ledger write and
// its notification commit together; the verification record and audit event
// are appended afterwards and a failure there only produces a warning.
func (s *VerificationService) VerifyPayment(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	if _, err := req.Decision.TargetStatus(); err != nil {
		return nil, err
	}

	p, err := s.payments.load(ctx, req.Type, req.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	current := p.State()
	next := current
	if err := next.Verify(req.Decision, req.VerifierID, now); err != nil {
		return nil, err
	}

	event := outbox.EventPaymentVerified
	if req.Decision == settlement.DecisionRejected {
		event = outbox.EventPaymentRejected
	}

	err = s.guard.Write(ctx, "store.verify_payment", func(ctx context.Context) error {
		return s.stores.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.payments.update(txCtx, p, current.Status, next); err != nil {
				return err
			}
			return s.stores.Outbox.Insert(txCtx, outbox.NewEntry(string(p.Type), p.ID(), event, p.Payer(), map[string]any{
				"payment_id":    p.ID().String(),
				"payment_type":  string(p.Type),
				"tournament_id": p.TournamentID(),
				"amount":        settlement.FormatCents(p.AmountDue()),
				"decision":      string(req.Decision),
				"notes":         req.Notes,
			}))
		})
	})
	if err != nil {
		if isConflict(err) {
			s.metrics.ConcurrentModification("verify_payment")
		}
		return nil, err
	}
	p.setState(next)
	s.metrics.PaymentTransition(string(p.Type), string(next.Status))

	result := &VerifyResult{
		PaymentResult: PaymentResult{Payment: p},
		Record:        settlement.NewVerificationRecord(p.ID(), p.Type, req.VerifierID, now, req.Decision, req.Notes),
	}
	result.Warnings = appendWarning(result.Warnings, s.audit.verification(ctx, result.Record))

	action := audit.ActionPaymentVerified
	if req.Decision == settlement.DecisionRejected {
		action = audit.ActionPaymentRejected
	}
	result.Warnings = appendWarning(result.Warnings, s.audit.event(ctx, audit.NewEvent(req.VerifierID, action, string(p.Type), p.ID().String(), map[string]any{
		"from":  string(current.Status),
		"to":    string(next.Status),
		"notes": req.Notes,
	})))
	return result, nil
}

type ResetRequest struct {
	Type    settlement.PaymentType
	ID      uuid.UUID
	AdminID string
	Reason  string
}

// ResetFailedPayment is the admin correction failed -> pending. It is the only
// backwards move in the payment state machine and is always audited.
func (s *VerificationService) ResetFailedPayment(ctx context.Context, req ResetRequest) (*PaymentResult, error) {
	if strings.TrimSpace(req.AdminID) == "" {
		return nil, domainErrors.NewValidationError("admin_id", "cannot be empty")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, domainErrors.NewValidationError("reason", "cannot be empty")
	}

	p, err := s.payments.load(ctx, req.Type, req.ID)
	if err != nil {
		return nil, err
	}

	current := p.State()
	next := current
	if err := next.ResetFailed(s.now()); err != nil {
		return nil, err
	}

	err = s.guard.Write(ctx, "store.reset_payment", func(ctx context.Context) error {
		return s.payments.update(ctx, p, current.Status, next)
	})
	if err != nil {
		if isConflict(err) {
			s.metrics.ConcurrentModification("reset_payment")
		}
		return nil, err
	}
	p.setState(next)
	s.metrics.PaymentTransition(string(p.Type), string(next.Status))

	s.logger.Warn().
		Str("payment_id", p.ID().String()).
		Str("payment_type", string(p.Type)).
		Str("admin_id", req.AdminID).
		Str("reason", req.Reason).
		Msg("failed payment reset to pending by admin override")

	result := &PaymentResult{Payment: p}
	result.Warnings = appendWarning(result.Warnings, s.audit.event(ctx, audit.NewEvent(req.AdminID, audit.ActionPaymentReset, string(p.Type), p.ID().String(), map[string]any{
		"from":   string(current.Status),
		"to":     string(next.Status),
		"reason": req.Reason,
	})))
	return result, nil
}

// VerificationHistory lists the append-only records for a payment.
func (s *VerificationService) VerificationHistory(ctx context.Context, paymentID uuid.UUID) ([]*settlement.VerificationRecord, error) {
	return Read(ctx, s.guard, "store.list_verifications", func(ctx context.Context) ([]*settlement.VerificationRecord, error) {
		return s.stores.Verifications.ListByPayment(ctx, paymentID)
	})
}

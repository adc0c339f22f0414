package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tourneyhub/settlement/internal/domain/audit"
	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/outbox"
	"github.com/tourneyhub/settlement/internal/domain/refund"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
	"github.com/tourneyhub/settlement/internal/infrastructure/observability"
)

// RefundService creates refund requests after rejections and walks them
// through the refund workflow. It only ever reads ledger rows.
type RefundService struct {
	stores  Stores
	ledger  *LedgerService
	locker  Locker
	guard   *StoreGuard
	audit   *auditRecorder
	metrics *observability.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

func NewRefundService(stores Stores, ledger *LedgerService, locker Locker, guard *StoreGuard, metrics *observability.Metrics, logger zerolog.Logger) *RefundService {
	return &RefundService{
		stores:  stores,
		ledger:  ledger,
		locker:  locker,
		guard:   guard,
		audit:   newAuditRecorder(stores, metrics, logger),
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RejectionEvent says a tournament or a registration was rejected elsewhere in the product.
type RejectionEvent struct {
	Kind           refund.Kind
	TournamentID   string
	OrganizerID    string
	PlayerID       string
	RegistrationID string
	PaymentID      *uuid.UUID // registration fee id, if known
	Reason         string
	Actor          string
}

// RefundResult carries the refund request an operation produced or found.
// Created is false when an active request for the subject already existed.
type RefundResult struct {
	Refund   *refund.Request
	Created  bool
	Warnings []string
}

// paidSubject is the ledger row a refund is drawn against.
type paidSubject struct {
	subject    refund.Subject
	paid       int64
	status     settlement.PaymentStatus
	commission *settlement.TournamentCommission
}

// OnRejection creates a pending refund for whatever part of the paid amount
// has not been refunded yet. A rejection with nothing paid is refund-free: it
// returns a nil Refund and no error.
func (s *RefundService) OnRejection(ctx context.Context, ev RejectionEvent) (*RefundResult, error) {
	ps, err := s.resolve(ctx, ev.Kind, ev.TournamentID, ev.OrganizerID, ev.PlayerID, ev.RegistrationID, ev.PaymentID)
	if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	if ps == nil || !ps.status.MoneyReceived() || ps.paid == 0 {
		status := "none"
		if ps != nil {
			status = string(ps.status)
		}
		s.logger.Info().
			Str("kind", string(ev.Kind)).
			Str("tournament_id", ev.TournamentID).
			Str("registration_id", ev.RegistrationID).
			Str("payment_status", status).
			Msg("rejection is refund-free, no paid payment found")
		s.metrics.Rejection(string(ev.Kind), "refund_free")

		result := &RefundResult{}
		result.Warnings = appendWarning(result.Warnings, s.audit.event(ctx, audit.NewEvent(ev.Actor, audit.ActionRejectionNoRefund, string(ev.Kind), ev.TournamentID, map[string]any{
			"registration_id": ev.RegistrationID,
			"payment_status":  status,
			"reason":          ev.Reason,
		})))
		return result, nil
	}

	result, err := s.create(ctx, ps, 0, ev.Reason, ev.Actor)
	if err != nil {
		return nil, err
	}
	outcome := "refund_existing"
	switch {
	case result.Created:
		outcome = "refund_created"
	case result.Refund.Status == refund.StatusCompleted:
		outcome = "already_refunded"
	}
	s.metrics.Rejection(string(ev.Kind), outcome)
	return result, nil
}

type CreateRefundRequest struct {
	Kind           refund.Kind
	TournamentID   string
	OrganizerID    string
	PlayerID       string
	RegistrationID string
	PaymentID      *uuid.UUID
	Amount         int64 // in cents, 0 refunds everything not yet refunded
	Reason         string
	Actor          string
}

// CreateRefundRequest opens a refund against a paid or verified ledger row.
// If the subject already has an active request, that request is returned.
func (s *RefundService) CreateRefundRequest(ctx context.Context, req CreateRefundRequest) (*RefundResult, error) {
	if req.Amount < 0 {
		return nil, domainErrors.NewValidationError("refund_amount", "cannot be negative")
	}
	ps, err := s.resolve(ctx, req.Kind, req.TournamentID, req.OrganizerID, req.PlayerID, req.RegistrationID, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if !ps.status.MoneyReceived() || ps.paid == 0 {
		return nil, domainErrors.NewValidationError("payment_status", "nothing has been paid for this subject")
	}
	return s.create(ctx, ps, req.Amount, req.Reason, req.Actor)
}

// resolve finds the ledger row behind a refund subject and takes the subject
// identity from it. Caller-supplied identity fields must agree with the row.
func (s *RefundService) resolve(ctx context.Context, kind refund.Kind, tournamentID, organizerID, playerID, registrationID string, paymentID *uuid.UUID) (*paidSubject, error) {
	switch kind {
	case refund.KindTournamentCommission:
		c, err := s.ledger.GetCommissionForRefund(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, domainErrors.ErrCommissionNotFound
		}
		if organizerID != "" && organizerID != c.OrganizerID {
			return nil, domainErrors.NewValidationError("organizer_id", "does not match the tournament's organizer")
		}
		return &paidSubject{
			subject: refund.Subject{
				Kind:         kind,
				TournamentID: c.TournamentID,
				OrganizerID:  c.OrganizerID,
			},
			paid:       c.CommissionAmount,
			status:     c.Status,
			commission: c,
		}, nil

	case refund.KindPlayerRegistration:
		f, err := s.findFee(ctx, tournamentID, playerID, registrationID, paymentID)
		if err != nil {
			return nil, err
		}
		if registrationID != "" && registrationID != f.RegistrationID {
			return nil, domainErrors.NewValidationError("registration_id", "does not match the registration fee")
		}
		if playerID != "" && playerID != f.PlayerID {
			return nil, domainErrors.NewValidationError("player_id", "does not match the registration fee")
		}
		id := f.ID
		return &paidSubject{
			subject: refund.Subject{
				Kind:           kind,
				TournamentID:   f.TournamentID,
				PlayerID:       f.PlayerID,
				RegistrationID: f.RegistrationID,
				PaymentID:      &id,
			},
			paid:   f.TotalAmount,
			status: f.Status,
		}, nil
	}
	return nil, domainErrors.NewDomainError("invalid_refund_kind", "unknown refund kind "+string(kind), domainErrors.ErrInvalidRefundKind)
}

// findFee locates a registration fee by payment id, or else the latest fee
// row for the registration (or player) within the tournament.
func (s *RefundService) findFee(ctx context.Context, tournamentID, playerID, registrationID string, paymentID *uuid.UUID) (*settlement.PlayerRegistrationFee, error) {
	if paymentID != nil {
		return s.ledger.GetRegistrationFee(ctx, *paymentID)
	}
	if tournamentID == "" {
		return nil, domainErrors.NewValidationError("tournament_id", "cannot be empty")
	}
	if registrationID == "" && playerID == "" {
		return nil, domainErrors.NewValidationError("registration_id", "registration_id, player_id or payment_id is required")
	}

	fees, err := s.ledger.ListRegistrationFees(ctx, settlement.ListFilter{TournamentID: &tournamentID})
	if err != nil {
		return nil, err
	}
	var found *settlement.PlayerRegistrationFee
	for _, f := range fees {
		if registrationID != "" && f.RegistrationID != registrationID {
			continue
		}
		if registrationID == "" && f.PlayerID != playerID {
			continue
		}
		found = f // rows are oldest first; keep the latest
	}
	if found == nil {
		return nil, domainErrors.ErrRegistrationFeeNotFound
	}
	return found, nil
}

// create enforces at most one active request per subject: a redis lock
// serializes creators, and the store's unique index backs it up when the lock
// is unavailable. Completed refunds reduce what is left to refund; requested
// 0 means all of it, and on a fully refunded subject returns its latest refund.
func (s *RefundService) create(ctx context.Context, ps *paidSubject, requested int64, reason, actor string) (*RefundResult, error) {
	key := ps.subject.Key()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "refund:"+key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn().Err(err).Str("subject", key).Msg("refund lock unavailable, relying on store uniqueness")
		} else {
			defer unlock()
		}
	}

	if existing, err := s.findActive(ctx, key); err != nil {
		return nil, err
	} else if existing != nil {
		return &RefundResult{Refund: existing}, nil
	}

	refunded, latest, err := s.completedRefunds(ctx, key)
	if err != nil {
		return nil, err
	}
	remaining := ps.paid - refunded
	if remaining <= 0 && requested == 0 && latest != nil {
		s.logger.Info().Str("subject", key).Str("refund_id", latest.ID.String()).Msg("subject already fully refunded")
		return &RefundResult{Refund: latest}, nil
	}
	amount := requested
	if amount == 0 {
		amount = remaining
	}
	if amount > remaining {
		return nil, domainErrors.NewValidationError("refund_amount", "cannot exceed the amount not yet refunded")
	}

	r, err := refund.NewRequest(ps.subject, amount, ps.paid, reason)
	if err != nil {
		return nil, err
	}
	if ps.commission != nil {
		id := ps.commission.ID
		r.CommissionID = &id
		r.CommissionAmount = ps.commission.CommissionAmount
	}

	err = s.guard.Write(ctx, "store.create_refund", func(ctx context.Context) error {
		return s.stores.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.stores.Refunds.Create(txCtx, r); err != nil {
				return err
			}
			return s.stores.Outbox.Insert(txCtx, outbox.NewEntry("refund_request", r.ID, outbox.EventRefundRequested, refundRecipient(r), refundPayload(r)))
		})
	})
	if errors.Is(err, domainErrors.ErrActiveRefundExists) {
		existing, findErr := s.findActive(ctx, key)
		if findErr != nil {
			return nil, findErr
		}
		if existing != nil {
			return &RefundResult{Refund: existing}, nil
		}
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RefundTransition(string(r.Kind), string(r.Status))
	result := &RefundResult{Refund: r, Created: true}
	result.Warnings = appendWarning(result.Warnings, s.audit.event(ctx, audit.NewEvent(actor, audit.ActionRefundCreated, "refund_request", r.ID.String(), map[string]any{
		"kind":          string(r.Kind),
		"subject":       key,
		"refund_amount": r.RefundAmount,
		"reason":        r.Reason,
	})))
	return result, nil
}

func (s *RefundService) findActive(ctx context.Context, key string) (*refund.Request, error) {
	r, err := Read(ctx, s.guard, "store.find_active_refund", func(ctx context.Context) (*refund.Request, error) {
		return s.stores.Refunds.FindActive(ctx, key)
	})
	if errors.Is(err, domainErrors.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

// completedRefunds sums the completed refunds for a subject and returns the latest one.
func (s *RefundService) completedRefunds(ctx context.Context, key string) (int64, *refund.Request, error) {
	done, err := Read(ctx, s.guard, "store.list_completed_refunds", func(ctx context.Context) ([]*refund.Request, error) {
		return s.stores.Refunds.ListCompleted(ctx, key)
	})
	if err != nil {
		return 0, nil, err
	}
	var (
		total  int64
		latest *refund.Request
	)
	for _, r := range done {
		total += r.RefundAmount
		latest = r
	}
	return total, latest, nil
}

type AdvanceRefundRequest struct {
	ID                  uuid.UUID
	Status              refund.Status
	AdminNotes          string
	RefundMethod        string
	RefundTransactionID string
	Actor               string
}

// AdvanceStatus moves a refund one step along pending -> approved ->
// processing -> completed, or pending -> rejected.
func (s *RefundService) AdvanceStatus(ctx context.Context, req AdvanceRefundRequest) (*RefundResult, error) {
	current, err := s.GetRefund(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	expected := current.Status
	next := *current
	if err := next.Apply(refund.Advance{
		Status:              req.Status,
		AdminNotes:          req.AdminNotes,
		RefundMethod:        req.RefundMethod,
		RefundTransactionID: req.RefundTransactionID,
	}, s.now()); err != nil {
		return nil, err
	}

	event := outbox.EventRefundAdvanced
	if next.Status == refund.StatusCompleted {
		event = outbox.EventRefundCompleted
	}

	err = s.guard.Write(ctx, "store.advance_refund", func(ctx context.Context) error {
		return s.stores.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.stores.Refunds.UpdateStatus(txCtx, &next, expected); err != nil {
				return err
			}
			return s.stores.Outbox.Insert(txCtx, outbox.NewEntry("refund_request", next.ID, event, refundRecipient(&next), refundPayload(&next)))
		})
	})
	if err != nil {
		if isConflict(err) {
			s.metrics.ConcurrentModification("advance_refund")
		}
		return nil, err
	}
	s.metrics.RefundTransition(string(next.Kind), string(next.Status))

	result := &RefundResult{Refund: &next}
	result.Warnings = appendWarning(result.Warnings, s.audit.event(ctx, audit.NewEvent(req.Actor, audit.ActionRefundAdvanced, "refund_request", next.ID.String(), map[string]any{
		"from":        string(expected),
		"to":          string(next.Status),
		"admin_notes": req.AdminNotes,
	})))
	return result, nil
}

func (s *RefundService) GetRefund(ctx context.Context, id uuid.UUID) (*refund.Request, error) {
	return Read(ctx, s.guard, "store.get_refund", func(ctx context.Context) (*refund.Request, error) {
		return s.stores.Refunds.GetByID(ctx, id)
	})
}

func (s *RefundService) ListRefunds(ctx context.Context, filter refund.ListFilter) ([]*refund.Request, error) {
	return Read(ctx, s.guard, "store.list_refunds", func(ctx context.Context) ([]*refund.Request, error) {
		return s.stores.Refunds.List(ctx, filter)
	})
}

func refundRecipient(r *refund.Request) string {
	if r.Kind == refund.KindPlayerRegistration {
		return r.PlayerID
	}
	return r.OrganizerID
}

func refundPayload(r *refund.Request) map[string]any {
	return map[string]any{
		"refund_id":     r.ID.String(),
		"kind":          string(r.Kind),
		"tournament_id": r.TournamentID,
		"refund_amount": settlement.FormatCents(r.RefundAmount),
		"status":        string(r.Status),
		"reason":        r.Reason,
	}
}

package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tourneyhub/settlement/internal/domain/audit"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
	"github.com/tourneyhub/settlement/internal/infrastructure/observability"
)

// auditRecorder performs the appends that follow a committed state change.
// A failed append is logged, counted and handed back as a warning; it never
// undoes the change.
type auditRecorder struct {
	trail         audit.Trail
	verifications settlement.VerificationRepository
	metrics       *observability.Metrics
	logger        zerolog.Logger
}

func newAuditRecorder(stores Stores, metrics *observability.Metrics, logger zerolog.Logger) *auditRecorder {
	trail := stores.Audit
	if trail == nil {
		trail = audit.Nop{}
	}
	return &auditRecorder{
		trail:         trail,
		verifications: stores.Verifications,
		metrics:       metrics,
		logger:        logger,
	}
}

// event appends e and returns a warning, or "" on success.
func (a *auditRecorder) event(ctx context.Context, e *audit.Event) string {
	if err := a.trail.Append(ctx, e); err != nil {
		a.metrics.AuditFailed("audit_event")
		a.logger.Warn().Err(err).
			Str("action", e.Action).
			Str("entity_type", e.EntityType).
			Str("entity_id", e.EntityID).
			Msg("audit append failed")
		return fmt.Sprintf("audit event %s was not recorded: %v", e.Action, err)
	}
	return ""
}

// verification appends the verification record for a committed decision.
func (a *auditRecorder) verification(ctx context.Context, r *settlement.VerificationRecord) string {
	if a.verifications == nil {
		return ""
	}
	if err := a.verifications.Append(ctx, r); err != nil {
		a.metrics.AuditFailed("verification_record")
		a.logger.Warn().Err(err).
			Str("payment_id", r.PaymentID.String()).
			Str("payment_type", string(r.PaymentType)).
			Str("decision", string(r.Status)).
			Msg("verification record append failed")
		return fmt.Sprintf("verification record was not stored: %v", err)
	}
	return ""
}

func appendWarning(warnings []string, w string) []string {
	if w == "" {
		return warnings
	}
	return append(warnings, w)
}

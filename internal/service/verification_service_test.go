package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourneyhub/settlement/internal/domain/audit"
	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/outbox"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
	"github.com/tourneyhub/settlement/internal/testutil"
)

func verifyCommission(id uuid.UUID, decision settlement.Decision) VerifyRequest {
	return VerifyRequest{
		Type:       settlement.TypeTournamentCommission,
		ID:         id,
		Decision:   decision,
		VerifierID: "admin-1",
		Notes:      "checked bank statement",
	}
}

// --- VerifyPayment Tests ---

func TestVerifyPayment_TwiceRejectsSecondCall(t *testing.T) {
	env := setupServices()
	ctx := context.Background()
	c := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPaid)
	env.commissions.Add(c)

	_, err := env.verification.VerifyPayment(ctx, verifyCommission(c.ID, settlement.DecisionApproved))
	require.NoError(t, err)
	first := env.commissions.Stored(c.ID)

	second := verifyCommission(c.ID, settlement.DecisionApproved)
	second.VerifierID = "admin-2"
	_, err = env.verification.VerifyPayment(ctx, second)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)

	after := env.commissions.Stored(c.ID)
	assert.Equal(t, "admin-1", *after.VerifiedBy)
	assert.Equal(t, *first.VerifiedAt, *after.VerifiedAt)
	assert.Len(t, env.verifications.Records(), 1)
}

func TestVerifyPayment_Rejected(t *testing.T) {
	env := setupServices()
	c := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPaid)
	env.commissions.Add(c)

	res, err := env.verification.VerifyPayment(context.Background(), verifyCommission(c.ID, settlement.DecisionRejected))
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusFailed, res.Payment.State().Status)
	assert.Equal(t, settlement.DecisionRejected, res.Record.Status)
	assert.Equal(t, settlement.StatusFailed, env.commissions.Stored(c.ID).Status)

	entries := env.outbox.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, outbox.EventPaymentRejected, entries[0].EventType)
	assert.Equal(t, "org-1", entries[0].Recipient)
	assert.Equal(t, []string{audit.ActionPaymentRejected}, env.trail.Actions())
}

func TestVerifyPayment_RequiresPaid(t *testing.T) {
	for _, status := range []settlement.PaymentStatus{settlement.StatusPending, settlement.StatusVerified, settlement.StatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			env := setupServices()
			c := testutil.NewTestCommission("t-1", "org-1", 10000, status)
			env.commissions.Add(c)

			_, err := env.verification.VerifyPayment(context.Background(), verifyCommission(c.ID, settlement.DecisionApproved))
			assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)
			assert.Equal(t, status, env.commissions.Stored(c.ID).Status)
		})
	}
}

func TestVerifyPayment_InvalidInput(t *testing.T) {
	env := setupServices()
	c := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPaid)
	env.commissions.Add(c)

	_, err := env.verification.VerifyPayment(context.Background(), verifyCommission(c.ID, "maybe"))
	assert.ErrorIs(t, err, domainErrors.ErrValidationFailed)

	req := verifyCommission(c.ID, settlement.DecisionApproved)
	req.VerifierID = ""
	_, err = env.verification.VerifyPayment(context.Background(), req)
	assert.ErrorIs(t, err, domainErrors.ErrValidationFailed)
	assert.Equal(t, settlement.StatusPaid, env.commissions.Stored(c.ID).Status)
}

func TestVerifyPayment_RecordFailureIsWarningNotError(t *testing.T) {
	env := setupServices()
	c := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPaid)
	env.commissions.Add(c)
	env.verifications.AppendFunc = func(ctx context.Context, r *settlement.VerificationRecord) error {
		return errors.New("disk full")
	}
	env.trail.AppendFunc = func(ctx context.Context, e *audit.Event) error {
		return errors.New("disk full")
	}

	res, err := env.verification.VerifyPayment(context.Background(), verifyCommission(c.ID, settlement.DecisionApproved))
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "verification record")
	assert.Equal(t, settlement.StatusVerified, env.commissions.Stored(c.ID).Status)
}

func TestVerifyPayment_RegistrationFee(t *testing.T) {
	env := setupServices()
	f := testutil.NewTestFee("t-1", "p-1", "reg-1", 2500, settlement.StatusPaid)
	env.fees.Add(f)

	res, err := env.verification.VerifyPayment(context.Background(), VerifyRequest{
		Type: settlement.TypeRegistrationFee, ID: f.ID, Decision: settlement.DecisionApproved, VerifierID: "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusVerified, env.fees.Stored(f.ID).Status)
	assert.Equal(t, settlement.TypeRegistrationFee, res.Record.PaymentType)
	assert.Equal(t, "p-1", env.outbox.Entries()[0].Recipient)
}

func TestVerifyPayment_ConcurrentCallsOneWins(t *testing.T) {
	env := setupServices()
	c := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPaid)
	env.commissions.Add(c)

	// Both callers read "paid" before either writes.
	var barrier sync.WaitGroup
	barrier.Add(2)
	env.commissions.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*settlement.TournamentCommission, error) {
		row := env.commissions.Stored(id)
		barrier.Done()
		barrier.Wait()
		return row, nil
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, admin := range []string{"admin-1", "admin-2"} {
		wg.Add(1)
		go func(i int, admin string) {
			defer wg.Done()
			req := verifyCommission(c.ID, settlement.DecisionApproved)
			req.VerifierID = admin
			_, errs[i] = env.verification.VerifyPayment(context.Background(), req)
		}(i, admin)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domainErrors.ErrConcurrentModification):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Len(t, env.verifications.Records(), 1)
	assert.Len(t, env.outbox.Entries(), 1)
}

// --- ResetFailedPayment Tests ---

func TestResetFailedPayment(t *testing.T) {
	env := setupServices()
	c := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusFailed)
	env.commissions.Add(c)

	res, err := env.verification.ResetFailedPayment(context.Background(), ResetRequest{
		Type: settlement.TypeTournamentCommission, ID: c.ID, AdminID: "admin-1", Reason: "wrong receipt rejected",
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	stored := env.commissions.Stored(c.ID)
	assert.Equal(t, settlement.StatusPending, stored.Status)
	assert.Nil(t, stored.ProofURL)
	assert.Nil(t, stored.VerifiedBy)
	assert.Nil(t, stored.VerifiedAt)
	assert.Equal(t, int64(500), stored.CommissionAmount)
	assert.Equal(t, []string{audit.ActionPaymentReset}, env.trail.Actions())
}

func TestResetFailedPayment_OnlyFromFailed(t *testing.T) {
	env := setupServices()
	c := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusVerified)
	env.commissions.Add(c)

	_, err := env.verification.ResetFailedPayment(context.Background(), ResetRequest{
		Type: settlement.TypeTournamentCommission, ID: c.ID, AdminID: "admin-1", Reason: "oops",
	})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidStateTransition)
	assert.Equal(t, settlement.StatusVerified, env.commissions.Stored(c.ID).Status)
}

func TestResetFailedPayment_RequiresReason(t *testing.T) {
	env := setupServices()

	_, err := env.verification.ResetFailedPayment(context.Background(), ResetRequest{
		Type: settlement.TypeTournamentCommission, ID: uuid.New(), AdminID: "admin-1",
	})
	assert.ErrorIs(t, err, domainErrors.ErrValidationFailed)
}

func TestVerificationHistory(t *testing.T) {
	env := setupServices()
	c := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPaid)
	env.commissions.Add(c)

	_, err := env.verification.VerifyPayment(context.Background(), verifyCommission(c.ID, settlement.DecisionRejected))
	require.NoError(t, err)

	history, err := env.verification.VerificationHistory(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "checked bank statement", history[0].Notes)
}

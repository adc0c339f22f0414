package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourneyhub/settlement/internal/domain/settlement"
	"github.com/tourneyhub/settlement/internal/testutil"
)

func TestGetRevenueStats_DeduplicatesCommissions(t *testing.T) {
	env := setupServices()
	env.commissions.Add(testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusVerified))
	env.commissions.Add(testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusVerified))
	env.commissions.Add(testutil.NewTestCommission("t-2", "org-2", 4000, settlement.StatusPaid))
	env.fees.Add(testutil.NewTestFee("t-1", "p-1", "reg-1", 2500, settlement.StatusVerified))

	stats, err := env.revenue.GetRevenueStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(700), stats.CommissionRevenue) // 500 + 200, not 1200
	assert.Equal(t, int64(250), stats.FeeCommissionRevenue)
	assert.Equal(t, int64(950), stats.TotalRevenue)
	assert.Equal(t, int64(750), stats.VerifiedRevenue)
	assert.Equal(t, 1, stats.AwaitingVerification)
	assert.Equal(t, 2, stats.VerifiedPayments)
	assert.Equal(t, 1, stats.DuplicateCommissionRows)

	require.Len(t, stats.Tournaments, 2)
	assert.Equal(t, "t-1", stats.Tournaments[0].TournamentID)
	assert.Equal(t, int64(750), stats.Tournaments[0].Total())
	assert.Equal(t, 1, stats.Tournaments[0].DuplicateRows)
}

func TestGetPendingPayments_AwaitingVerificationOnly(t *testing.T) {
	env := setupServices()
	paid := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPaid)
	env.commissions.Add(paid)
	env.commissions.Add(testutil.NewTestCommission("t-2", "org-2", 10000, settlement.StatusPending))
	env.fees.Add(testutil.NewTestFee("t-1", "p-1", "reg-1", 2500, settlement.StatusPaid))
	env.fees.Add(testutil.NewTestFee("t-1", "p-2", "reg-2", 2500, settlement.StatusPending))

	report, err := env.revenue.GetPendingPayments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count())
	require.Len(t, report.Commissions, 1)
	assert.Equal(t, paid.ID, report.Commissions[0].ID)
}

func TestGetPendingPayments_UsesLatestRowPerTournament(t *testing.T) {
	env := setupServices()
	ctx := context.Background()

	first, err := env.ledger.CreateTournamentCommission(ctx, CreateCommissionRequest{
		TournamentID: "t-1", OrganizerID: "org-1", TotalAmount: 10000, Percentage: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	retried, err := env.ledger.CreateTournamentCommission(ctx, CreateCommissionRequest{
		TournamentID: "t-1", OrganizerID: "org-1", TotalAmount: 10000, Percentage: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	owed, err := env.ledger.GetCommissionForRefund(ctx, "t-1")
	require.NoError(t, err)
	require.Equal(t, retried.ID, owed.ID)

	_, err = env.ledger.SubmitPaymentProof(ctx, SubmitProofRequest{
		Type: settlement.TypeTournamentCommission, ID: retried.ID, ProofURL: "https://proofs.example.com/r.png", Actor: "org-1",
	})
	require.NoError(t, err)

	pending, err := env.revenue.GetPendingPayments(ctx)
	require.NoError(t, err)
	require.Len(t, pending.Commissions, 1)
	assert.Equal(t, retried.ID, pending.Commissions[0].ID)
	assert.NotEqual(t, first.ID, pending.Commissions[0].ID)

	verified, err := env.revenue.GetVerifiedPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, verified.Commissions)

	stats, err := env.revenue.GetRevenueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AwaitingVerification)
	assert.Equal(t, 0, stats.AwaitingPayment)
}

func TestGetVerifiedPayments_OneRowPerTournament(t *testing.T) {
	env := setupServices()
	env.commissions.Add(testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusVerified))
	latest := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusVerified)
	env.commissions.Add(latest)

	verified, err := env.revenue.GetVerifiedPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, verified.Commissions, 1)
	assert.Equal(t, latest.ID, verified.Commissions[0].ID)
}

func TestExportVerifiedPayments(t *testing.T) {
	env := setupServices()
	env.commissions.Add(testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusVerified))
	c := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusVerified)
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	c.VerifiedAt = &at
	env.commissions.Add(c)
	env.commissions.Add(testutil.NewTestCommission("t-2", "org-2", 10000, settlement.StatusPaid))

	var buf bytes.Buffer
	require.NoError(t, env.revenue.ExportVerifiedPayments(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Tournament", "Organizer", "Commission %", "Amount", "Verified Date", "Verified By"}, records[0])
	assert.Equal(t, []string{"t-1", "org-1", "5%", "$5.00", "03/14/2026", "admin-1"}, records[1])
}

func TestExportVerifiedPayments_EmptyHasHeader(t *testing.T) {
	env := setupServices()

	var buf bytes.Buffer
	require.NoError(t, env.revenue.ExportVerifiedPayments(context.Background(), &buf))
	assert.Equal(t, "Tournament,Organizer,Commission %,Amount,Verified Date,Verified By\n", buf.String())
}

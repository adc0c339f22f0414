package controller

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourneyhub/settlement/internal/domain/settlement"
	"github.com/tourneyhub/settlement/internal/testutil"
)

func TestRefundController_Rejection_CreatesOnce(t *testing.T) {
	env := setupAPI()
	env.commissions.Add(testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusVerified))
	body := map[string]any{
		"kind":          "tournament_commission",
		"tournament_id": "t-1",
		"organizer_id":  "org-1",
		"reason":        "tournament rejected by moderation",
	}

	rec := env.do(t, http.MethodPost, "/api/v1/rejections", body)
	requireStatus(t, rec, http.StatusCreated)
	first := decodeBody[RefundResultResponse](t, rec)
	require.NotNil(t, first.Refund)
	assert.True(t, first.Created)
	assert.Equal(t, 5.0, first.Refund.RefundAmount)
	assert.Equal(t, "pending", first.Refund.Status)

	rec = env.do(t, http.MethodPost, "/api/v1/rejections", body)
	requireStatus(t, rec, http.StatusOK)
	second := decodeBody[RefundResultResponse](t, rec)
	require.NotNil(t, second.Refund)
	assert.False(t, second.Created)
	assert.Equal(t, first.Refund.ID, second.Refund.ID)
	assert.Equal(t, 1, env.refunds.Count())
}

func TestRefundController_Rejection_NothingPaid(t *testing.T) {
	env := setupAPI()
	env.commissions.Add(testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPending))

	rec := env.do(t, http.MethodPost, "/api/v1/rejections", map[string]any{
		"kind":          "tournament_commission",
		"tournament_id": "t-1",
		"organizer_id":  "org-1",
	})
	requireStatus(t, rec, http.StatusOK)
	resp := decodeBody[RefundResultResponse](t, rec)
	assert.Nil(t, resp.Refund)
	assert.False(t, resp.Created)
	assert.Equal(t, 0, env.refunds.Count())
}

func TestRefundController_Rejection_BadKind(t *testing.T) {
	env := setupAPI()

	rec := env.do(t, http.MethodPost, "/api/v1/rejections", map[string]any{"kind": "merch", "tournament_id": "t-1"})
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestRefundController_CreateAndAdvance(t *testing.T) {
	env := setupAPI()
	f := testutil.NewTestFee("t-1", "p-1", "reg-1", 2500, settlement.StatusPaid)
	env.fees.Add(f)

	rec := env.do(t, http.MethodPost, "/api/v1/refunds", map[string]any{
		"kind":            "player_registration",
		"tournament_id":   "t-1",
		"player_id":       "p-1",
		"registration_id": "reg-1",
		"payment_id":      f.ID.String(),
		"amount":          10.00,
		"reason":          "player withdrew before start",
	})
	requireStatus(t, rec, http.StatusCreated)
	created := decodeBody[RefundResultResponse](t, rec)
	require.NotNil(t, created.Refund)
	assert.Equal(t, 10.0, created.Refund.RefundAmount)
	statusPath := "/api/v1/refunds/" + created.Refund.ID + "/status"

	// Skipping approval is not allowed.
	rec = env.do(t, http.MethodPost, statusPath, map[string]any{"status": "completed", "refund_method": "bank", "refund_transaction_id": "tx-1"})
	requireStatus(t, rec, http.StatusConflict)

	for _, status := range []string{"approved", "processing"} {
		rec = env.do(t, http.MethodPost, statusPath, map[string]any{"status": status})
		requireStatus(t, rec, http.StatusOK)
	}

	rec = env.do(t, http.MethodPost, statusPath, map[string]any{"status": "completed"})
	requireStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodPost, statusPath, map[string]any{"status": "completed", "refund_method": "bank", "refund_transaction_id": "tx-1"})
	requireStatus(t, rec, http.StatusOK)
	done := decodeBody[RefundResultResponse](t, rec)
	assert.Equal(t, "completed", done.Refund.Status)
	assert.NotNil(t, done.Refund.CompletedAt)

	rec = env.do(t, http.MethodGet, "/api/v1/refunds/"+created.Refund.ID, nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "completed", decodeBody[RefundResponse](t, rec).Status)
}

func TestRefundController_CreateRefund_BadPaymentID(t *testing.T) {
	env := setupAPI()

	rec := env.do(t, http.MethodPost, "/api/v1/refunds", map[string]any{
		"kind":            "player_registration",
		"tournament_id":   "t-1",
		"registration_id": "reg-1",
		"payment_id":      "nope",
		"reason":          "x",
	})
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestRefundController_ListAndGet(t *testing.T) {
	env := setupAPI()
	env.commissions.Add(testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPaid))
	rec := env.do(t, http.MethodPost, "/api/v1/rejections", map[string]any{
		"kind": "tournament_commission", "tournament_id": "t-1", "organizer_id": "org-1",
	})
	requireStatus(t, rec, http.StatusCreated)

	rec = env.do(t, http.MethodGet, "/api/v1/refunds?status=pending&kind=tournament_commission", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decodeBody[[]RefundResponse](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/v1/refunds?status=completed", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Empty(t, decodeBody[[]RefundResponse](t, rec))

	rec = env.do(t, http.MethodGet, "/api/v1/refunds?kind=merch", nil)
	requireStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodGet, "/api/v1/refunds/"+uuid.New().String(), nil)
	requireStatus(t, rec, http.StatusNotFound)
}

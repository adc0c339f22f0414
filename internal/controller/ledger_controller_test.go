package controller

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
	"github.com/tourneyhub/settlement/internal/testutil"
)

func TestLedgerController_CreateCommission_DefaultPercentage(t *testing.T) {
	env := setupAPI()

	rec := env.do(t, http.MethodPost, "/api/v1/commissions", map[string]any{
		"tournament_id": "t-1",
		"organizer_id":  "org-1",
		"total_amount":  1000.00,
	})
	requireStatus(t, rec, http.StatusCreated)

	resp := decodeBody[CommissionResponse](t, rec)
	assert.Equal(t, "5", resp.CommissionPercentage)
	assert.Equal(t, 50.0, resp.CommissionAmount)
	assert.Equal(t, "pending", resp.Status)
}

func TestLedgerController_CreateCommission_ExplicitPercentage(t *testing.T) {
	env := setupAPI()

	rec := env.do(t, http.MethodPost, "/api/v1/commissions", map[string]any{
		"tournament_id":         "t-1",
		"organizer_id":          "org-1",
		"total_amount":          199.99,
		"commission_percentage": "7.5",
	})
	requireStatus(t, rec, http.StatusCreated)

	resp := decodeBody[CommissionResponse](t, rec)
	assert.Equal(t, 15.0, resp.CommissionAmount) // 1499.925 cents rounds to 1500
}

func TestLedgerController_CreateCommission_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing tournament", map[string]any{"organizer_id": "org-1", "total_amount": 10}},
		{"negative amount", map[string]any{"tournament_id": "t-1", "organizer_id": "org-1", "total_amount": -10}},
		{"percentage over 100", map[string]any{"tournament_id": "t-1", "organizer_id": "org-1", "total_amount": 10, "commission_percentage": 101}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupAPI()
			rec := env.do(t, http.MethodPost, "/api/v1/commissions", tt.body)
			requireStatus(t, rec, http.StatusBadRequest)
			assert.Equal(t, "validation_error", decodeBody[ErrorResponse](t, rec).Code)
		})
	}
}

func TestLedgerController_GetCommission(t *testing.T) {
	env := setupAPI()
	c := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPaid)
	env.commissions.Add(c)

	rec := env.do(t, http.MethodGet, "/api/v1/commissions/"+c.ID.String(), nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, c.ID.String(), decodeBody[CommissionResponse](t, rec).ID)

	rec = env.do(t, http.MethodGet, "/api/v1/commissions/"+uuid.New().String(), nil)
	requireStatus(t, rec, http.StatusNotFound)

	rec = env.do(t, http.MethodGet, "/api/v1/commissions/not-a-uuid", nil)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "invalid_id", decodeBody[ErrorResponse](t, rec).Code)
}

func TestLedgerController_GetTournamentCommission(t *testing.T) {
	env := setupAPI()
	env.commissions.Add(testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPaid))

	rec := env.do(t, http.MethodGet, "/api/v1/tournaments/t-1/commission", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "t-1", decodeBody[CommissionResponse](t, rec).TournamentID)

	rec = env.do(t, http.MethodGet, "/api/v1/tournaments/t-404/commission", nil)
	requireStatus(t, rec, http.StatusNotFound)
}

func TestLedgerController_ListCommissions_Filter(t *testing.T) {
	env := setupAPI()
	env.commissions.Add(testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPaid))
	env.commissions.Add(testutil.NewTestCommission("t-2", "org-2", 10000, settlement.StatusPending))

	rec := env.do(t, http.MethodGet, "/api/v1/commissions?status=paid", nil)
	requireStatus(t, rec, http.StatusOK)
	rows := decodeBody[[]CommissionResponse](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "t-1", rows[0].TournamentID)

	rec = env.do(t, http.MethodGet, "/api/v1/commissions?status=refunded", nil)
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestLedgerController_RegistrationFee(t *testing.T) {
	env := setupAPI()

	rec := env.do(t, http.MethodPost, "/api/v1/registration-fees", map[string]any{
		"tournament_id":         "t-1",
		"player_id":             "p-1",
		"registration_id":       "reg-1",
		"registration_fee":      25.00,
		"commission_percentage": 10,
	})
	requireStatus(t, rec, http.StatusCreated)
	created := decodeBody[FeeResponse](t, rec)
	assert.Equal(t, 2.5, created.CommissionAmount)
	assert.Equal(t, 25.0, created.TotalAmount)

	rec = env.do(t, http.MethodGet, "/api/v1/registration-fees/"+created.ID, nil)
	requireStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodGet, "/api/v1/registration-fees?tournament_id=t-1", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decodeBody[[]FeeResponse](t, rec), 1)
}

func TestLedgerController_SubmitProof(t *testing.T) {
	env := setupAPI()
	c := testutil.NewTestCommission("t-1", "org-1", 10000, settlement.StatusPending)
	env.commissions.Add(c)
	path := "/api/v1/payments/tournament_commission/" + c.ID.String() + "/proof"
	body := map[string]any{"proof_url": "https://proofs.example.com/r.png", "payment_method": "bank_transfer"}

	rec := env.do(t, http.MethodPost, path, body)
	requireStatus(t, rec, http.StatusOK)
	resp := decodeBody[PaymentResponse](t, rec)
	require.NotNil(t, resp.Commission)
	assert.Equal(t, "paid", resp.Commission.Status)

	// Already paid: the second submit is not a legal transition.
	rec = env.do(t, http.MethodPost, path, body)
	requireStatus(t, rec, http.StatusConflict)
	assert.Equal(t, "invalid_state_transition", decodeBody[ErrorResponse](t, rec).Code)
}

func TestLedgerController_SubmitProof_UnknownType(t *testing.T) {
	env := setupAPI()

	rec := env.do(t, http.MethodPost, "/api/v1/payments/subscription/"+uuid.New().String()+"/proof",
		map[string]any{"proof_url": "https://proofs.example.com/r.png", "payment_method": "card"})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, "invalid_payment_type", decodeBody[ErrorResponse](t, rec).Code)
}

func TestLedgerController_StoreUnavailable(t *testing.T) {
	env := setupAPI()
	env.commissions.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*settlement.TournamentCommission, error) {
		return nil, domainErrors.Unavailable(context.DeadlineExceeded)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/commissions/"+uuid.New().String(), nil)
	requireStatus(t, rec, http.StatusServiceUnavailable)
	assert.Equal(t, "store_unavailable", decodeBody[ErrorResponse](t, rec).Code)
}

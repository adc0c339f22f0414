package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tourneyhub/settlement/internal/service"
	"github.com/tourneyhub/settlement/internal/testutil"
)

type apiEnv struct {
	commissions   *testutil.MockCommissionRepository
	fees          *testutil.MockFeeRepository
	verifications *testutil.MockVerificationRepository
	refunds       *testutil.MockRefundRepository
	outbox        *testutil.MockOutboxRepository
	trail         *testutil.MockAuditTrail

	router *chi.Mux
}

func setupAPI() *apiEnv {
	env := &apiEnv{
		commissions:   testutil.NewMockCommissionRepository(),
		fees:          testutil.NewMockFeeRepository(),
		verifications: &testutil.MockVerificationRepository{},
		refunds:       testutil.NewMockRefundRepository(),
		outbox:        &testutil.MockOutboxRepository{},
		trail:         &testutil.MockAuditTrail{},
	}
	stores := service.Stores{
		Commissions:   env.commissions,
		Fees:          env.fees,
		Verifications: env.verifications,
		Refunds:       env.refunds,
		Outbox:        env.outbox,
		Audit:         env.trail,
		Tx:            testutil.NewMockTransactionManager(),
	}
	logger := zerolog.Nop()

	guard := service.NewStoreGuard(service.GuardConfig{
		Name:             "api-test",
		FailureThreshold: 5,
		OpenTimeout:      time.Minute,
		ReadRetryDelay:   time.Millisecond,
	}, nil, logger)
	ledger := service.NewLedgerService(stores, guard, nil, logger)

	env.router = NewRouter(RouterDeps{
		LedgerService:       ledger,
		VerificationService: service.NewVerificationService(stores, guard, nil, logger),
		RefundService:       service.NewRefundService(stores, ledger, testutil.NewFakeLocker(), guard, nil, logger),
		RevenueService:      service.NewRevenueService(ledger, service.ReportFormat{CurrencyPrefix: "$", DateLayout: "01/02/2006"}),
		DefaultPercentage:   decimal.NewFromInt(5),
		Logger:              logger,
	})
	return env
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "admin-1")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}

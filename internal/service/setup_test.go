package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tourneyhub/settlement/internal/testutil"
)

// --- Test Helpers ---

type testEnv struct {
	commissions   *testutil.MockCommissionRepository
	fees          *testutil.MockFeeRepository
	verifications *testutil.MockVerificationRepository
	refunds       *testutil.MockRefundRepository
	outbox        *testutil.MockOutboxRepository
	trail         *testutil.MockAuditTrail
	tx            *testutil.MockTransactionManager
	locker        *testutil.FakeLocker

	guard        *StoreGuard
	ledger       *LedgerService
	verification *VerificationService
	refund       *RefundService
	revenue      *RevenueService
}

func setupServices() *testEnv {
	env := &testEnv{
		commissions:   testutil.NewMockCommissionRepository(),
		fees:          testutil.NewMockFeeRepository(),
		verifications: &testutil.MockVerificationRepository{},
		refunds:       testutil.NewMockRefundRepository(),
		outbox:        &testutil.MockOutboxRepository{},
		trail:         &testutil.MockAuditTrail{},
		tx:            testutil.NewMockTransactionManager(),
		locker:        testutil.NewFakeLocker(),
	}
	stores := Stores{
		Commissions:   env.commissions,
		Fees:          env.fees,
		Verifications: env.verifications,
		Refunds:       env.refunds,
		Outbox:        env.outbox,
		Audit:         env.trail,
		Tx:            env.tx,
	}
	logger := zerolog.Nop()

	env.guard = NewStoreGuard(GuardConfig{
		Name:             "test-store",
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		ReadRetryDelay:   time.Millisecond,
	}, nil, logger)
	env.ledger = NewLedgerService(stores, env.guard, nil, logger)
	env.verification = NewVerificationService(stores, env.guard, nil, logger)
	env.refund = NewRefundService(stores, env.ledger, env.locker, env.guard, nil, logger)
	env.revenue = NewRevenueService(env.ledger, ReportFormat{CurrencyPrefix: "$", DateLayout: "01/02/2006"})
	return env
}

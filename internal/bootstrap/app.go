package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tourneyhub/settlement/internal/infrastructure/config"
	"github.com/tourneyhub/settlement/internal/infrastructure/observability"
	infraRedis "github.com/tourneyhub/settlement/internal/infrastructure/redis"
	"github.com/tourneyhub/settlement/internal/repository/postgres"
	"github.com/tourneyhub/settlement/internal/service"
)

type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Str("service", serviceName).Msg("Starting")

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			go func() {
				<-ctx.Done()
				observability.Shutdown(context.Background(), tp)
			}()
			logger.Info().Msg("Tracing enabled")
		}
	}

	var metrics *observability.Metrics
	if cfg.Observability.EnableMetrics {
		metrics = observability.NewMetrics(metricsNamespace, nil)
		logger.Info().Msg("Metrics initialized")
	}

	pool, err := postgres.NewPool(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info().Msg("Connected to PostgreSQL")

	redisClient, err := infraRedis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("Connected to Redis")

	return &App{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Redis:   redisClient,
		Metrics: metrics,
	}, nil
}

// Services is the settlement service graph shared by the API and the worker.
type Services struct {
	Ledger       *service.LedgerService
	Verification *service.VerificationService
	Refund       *service.RefundService
	Revenue      *service.RevenueService
	Notifier     *service.Notifier
	Idempotency  *postgres.IdempotencyRepository
}

// Services wires the postgres repositories, the store guard and the redis
// locker into the settlement services.
func (a *App) Services() *Services {
	outboxRepo := postgres.NewOutboxRepository(a.Pool)
	txManager := postgres.NewTxManager(a.Pool)
	stores := service.Stores{
		Commissions:   postgres.NewCommissionRepository(a.Pool),
		Fees:          postgres.NewFeeRepository(a.Pool),
		Verifications: postgres.NewVerificationRepository(a.Pool),
		Refunds:       postgres.NewRefundRepository(a.Pool),
		Outbox:        outboxRepo,
		Audit:         postgres.NewAuditRepository(a.Pool),
		Tx:            txManager,
	}

	guard := service.NewStoreGuard(service.GuardConfig{
		Name:             "ledger-store",
		FailureThreshold: a.Config.Store.BreakerThreshold,
		OpenTimeout:      a.Config.Store.BreakerTimeout,
		ReadRetryDelay:   a.Config.Store.ReadRetryDelay,
	}, a.Metrics, observability.Component(a.Logger, "store"))

	settlementCfg := a.Config.Settlement
	ledger := service.NewLedgerService(stores, guard, a.Metrics, observability.Component(a.Logger, "ledger"))
	locker := infraRedis.NewLocker(a.Redis, settlementCfg.RefundLockTTL)

	return &Services{
		Ledger:       ledger,
		Verification: service.NewVerificationService(stores, guard, a.Metrics, observability.Component(a.Logger, "verification")),
		Refund:       service.NewRefundService(stores, ledger, locker, guard, a.Metrics, observability.Component(a.Logger, "refunds")),
		Revenue: service.NewRevenueService(ledger, service.ReportFormat{
			CurrencyPrefix: settlementCfg.CurrencyPrefix,
			DateLayout:     settlementCfg.ExportDateLayout,
		}),
		Notifier: service.NewNotifier(
			outboxRepo, txManager, infraRedis.NewStreamProducer(a.Redis),
			int(a.Config.Worker.BatchSize), a.Metrics, observability.Component(a.Logger, "notifier"),
		),
		Idempotency: postgres.NewIdempotencyRepository(a.Pool),
	}
}

func (a *App) Close() {
	a.Redis.Close()
	a.Pool.Close()
}

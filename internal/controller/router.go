package controller

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tourneyhub/settlement/internal/infrastructure/config"
	"github.com/tourneyhub/settlement/internal/infrastructure/observability"
	customMW "github.com/tourneyhub/settlement/internal/middleware"
	"github.com/tourneyhub/settlement/internal/service"
)

type RouterDeps struct {
	Pool                *pgxpool.Pool
	RedisClient         *redis.Client
	LedgerService       *service.LedgerService
	VerificationService *service.VerificationService
	RefundService       *service.RefundService
	RevenueService      *service.RevenueService
	IdempotencyStore    customMW.IdempotencyStore
	IdempotencyTTL      time.Duration
	DefaultPercentage   decimal.Decimal
	Metrics             *observability.Metrics
	Logger              zerolog.Logger
	CORSConfig          config.CORSConfig
	RateLimit           int
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-Actor-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	ledgerH := NewLedgerController(deps.LedgerService, deps.DefaultPercentage)
	verifyH := NewVerificationController(deps.VerificationService)
	refundH := NewRefundController(deps.RefundService)
	revenueH := NewRevenueController(deps.RevenueService)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(customMW.RateLimit(deps.RateLimit))

		// Idempotency middleware for mutating endpoints.
		idempotencyMW := func(next http.Handler) http.Handler { return next }
		if deps.IdempotencyStore != nil {
			idempotencyMW = customMW.Idempotency(deps.IdempotencyStore, deps.IdempotencyTTL, deps.Logger)
		}

		// Ledger
		r.With(idempotencyMW).Post("/commissions", ledgerH.CreateCommission)
		r.Get("/commissions", ledgerH.ListCommissions)
		r.Get("/commissions/{id}", ledgerH.GetCommission)
		r.Get("/tournaments/{tournamentID}/commission", ledgerH.GetTournamentCommission)
		r.With(idempotencyMW).Post("/registration-fees", ledgerH.CreateRegistrationFee)
		r.Get("/registration-fees", ledgerH.ListRegistrationFees)
		r.Get("/registration-fees/{id}", ledgerH.GetRegistrationFee)

		// Payment lifecycle
		r.Post("/payments/{type}/{id}/proof", ledgerH.SubmitProof)
		r.Post("/payments/{type}/{id}/verify", verifyH.Verify)
		r.Post("/payments/{type}/{id}/reset", verifyH.Reset)
		r.Get("/payments/{type}/{id}/verifications", verifyH.History)

		// Reports
		r.Get("/payments/pending", revenueH.Pending)
		r.Get("/payments/verified", revenueH.Verified)
		r.Get("/payments/verified/export", revenueH.Export)
		r.Get("/reports/revenue", revenueH.Stats)

		// Refunds
		r.With(idempotencyMW).Post("/refunds", refundH.CreateRefund)
		r.Get("/refunds", refundH.ListRefunds)
		r.Get("/refunds/{id}", refundH.GetRefund)
		r.Post("/refunds/{id}/status", refundH.AdvanceStatus)
		r.With(idempotencyMW).Post("/rejections", refundH.HandleRejection)
	})

	return r
}

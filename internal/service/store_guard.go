package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/infrastructure/observability"
	"github.com/tourneyhub/settlement/pkg/retry"
)

var tracer = otel.Tracer("github.com/tourneyhub/settlement/internal/service")

// GuardConfig tunes the ledger store circuit breaker.
type GuardConfig struct {
	Name             string
	FailureThreshold int
	OpenTimeout      time.Duration
	ReadRetryDelay   time.Duration
}

// StoreGuard fronts every ledger store call. Once the store is unreachable it
// fails fast with ErrBackendUnavailable instead of piling up timeouts. Only
// idempotent reads are retried, and only once.
type StoreGuard struct {
	name    string
	cb      *gobreaker.CircuitBreaker[any]
	delay   time.Duration
	metrics *observability.Metrics
}

func NewStoreGuard(cfg GuardConfig, metrics *observability.Metrics, logger zerolog.Logger) *StoreGuard {
	if cfg.Name == "" {
		cfg.Name = "ledger-store"
	}
	threshold := uint32(max(cfg.FailureThreshold, 1))

	g := &StoreGuard{name: cfg.Name, delay: cfg.ReadRetryDelay, metrics: metrics}
	g.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Domain outcomes such as not found or a lost race say nothing about store health.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domainErrors.ErrBackendUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState(name, float64(to))
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("ledger store breaker changed state")
		},
	})
	metrics.BreakerState(cfg.Name, float64(gobreaker.StateClosed))
	return g
}

func (g *StoreGuard) exec(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("store.breaker", g.name))

	_, err := g.cb.Execute(func() (any, error) {
		return nil, fn(ctx)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		g.metrics.BreakerRequest(g.name, "rejected")
		err = domainErrors.Unavailable(err)
	case errors.Is(err, domainErrors.ErrBackendUnavailable):
		g.metrics.BreakerRequest(g.name, "failure")
	default:
		g.metrics.BreakerRequest(g.name, "success")
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Write runs a mutating call once. A failed write is never replayed here:
// the caller re-reads and decides.
func (g *StoreGuard) Write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return g.exec(ctx, op, fn)
}

// Read runs an idempotent read, retrying once if the store was unavailable.
func Read[T any](ctx context.Context, g *StoreGuard, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	return retry.Once(ctx, g.delay, domainErrors.ErrBackendUnavailable, func() (T, error) {
		var out T
		err := g.exec(ctx, op, func(ctx context.Context) error {
			var err error
			out, err = fn(ctx)
			return err
		})
		return out, err
	})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tourneyhub/settlement/internal/bootstrap"
	"github.com/tourneyhub/settlement/internal/infrastructure/observability"
	infraRedis "github.com/tourneyhub/settlement/internal/infrastructure/redis"
	"github.com/tourneyhub/settlement/internal/service"
)

// staleAfter is how long a delivered but unacked rejection waits before
// another consumer claims it.
const staleAfter = time.Minute

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "settlement-worker", "settlement_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	svc := app.Services()
	streamProducer := infraRedis.NewStreamProducer(app.Redis)

	// --- Rejection stream consumer ---
	workerCfg := app.Config.Worker
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.RejectionStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	// --- Periodic jobs ---
	scheduler, err := newScheduler(ctx, app.Logger, svc, workerCfg.OutboxPollInterval, workerCfg.IdempotencyCleanupInterval)
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	scheduler.Start()

	app.Logger.Info().
		Str("stream", infraRedis.RejectionStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for rejections...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Rejection processor (reads from Redis Streams).
	proc := &rejectionProcessor{
		consumer: consumer,
		dlq:      streamProducer,
		refunds:  svc.Refund,
		metrics:  app.Metrics,
		logger:   app.Logger,
	}
	g.Go(func() error {
		return proc.run(gCtx)
	})

	// 2. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	if err := scheduler.Shutdown(); err != nil {
		app.Logger.Error().Err(err).Msg("Scheduler shutdown")
	}
	app.Logger.Info().Msg("Worker exited")
}

// newScheduler registers the outbox relay and the idempotency key cleanup.
// Singleton mode keeps a slow run from overlapping the next tick.
func newScheduler(ctx context.Context, logger zerolog.Logger, svc *bootstrap.Services, relayEvery, cleanupEvery time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if _, err := s.NewJob(
		gocron.DurationJob(relayEvery),
		gocron.NewTask(func() {
			n, err := svc.Notifier.RelayPending(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("Outbox relay failed")
				return
			}
			if n > 0 {
				logger.Debug().Int("published", n).Msg("Outbox relayed")
			}
		}),
		gocron.WithName("outbox-relay"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("schedule outbox relay: %w", err)
	}

	if _, err := s.NewJob(
		gocron.DurationJob(cleanupEvery),
		gocron.NewTask(func() {
			n, err := svc.Idempotency.Cleanup(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("Idempotency key cleanup failed")
				return
			}
			logger.Info().Int64("deleted", n).Msg("Expired idempotency keys removed")
		}),
		gocron.WithName("idempotency-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("schedule idempotency cleanup: %w", err)
	}

	return s, nil
}

type rejectionProcessor struct {
	consumer *infraRedis.StreamConsumer
	dlq      *infraRedis.StreamProducer
	refunds  *service.RefundService
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

func (p *rejectionProcessor) run(ctx context.Context) error {
	lastClaim := time.Time{}
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if time.Since(lastClaim) >= staleAfter {
			lastClaim = time.Now()
			stale, err := p.consumer.ClaimStale(ctx, staleAfter)
			if err != nil {
				p.logger.Error().Err(err).Msg("Failed to claim stale messages")
			}
			for _, msg := range stale {
				p.handle(ctx, msg)
			}
		}

		streams, err := p.consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				p.handle(ctx, msg)
			}
		}
	}
}

// handle acks a message once it is settled: processed, or parked on the DLQ.
// Store outages and lost races leave it pending for ClaimStale to retry.
func (p *rejectionProcessor) handle(ctx context.Context, msg redis.XMessage) {
	start := time.Now()
	log := p.logger.With().Str("message_id", msg.ID).Logger()

	ev, err := service.ParseRejectionMessage(msg.Values)
	if err == nil {
		var res *service.RefundResult
		res, err = p.refunds.OnRejection(ctx, ev)
		if err == nil {
			event := log.Info().Str("kind", string(ev.Kind)).Str("tournament_id", ev.TournamentID)
			if res.Refund != nil {
				event = event.Str("refund_id", res.Refund.ID.String()).Bool("created", res.Created)
			}
			event.Strs("warnings", res.Warnings).Msg("Rejection processed")
			p.metrics.WorkerMessage(infraRedis.RejectionStream, "success", time.Since(start).Seconds())
			p.ack(ctx, msg.ID)
			return
		}
	}

	if service.Redeliverable(err) {
		log.Warn().Err(err).Msg("Rejection left pending for retry")
		p.metrics.WorkerMessage(infraRedis.RejectionStream, "retry", time.Since(start).Seconds())
		return
	}

	log.Error().Err(err).Msg("Rejection moved to DLQ")
	p.metrics.WorkerMessage(infraRedis.RejectionStream, "dlq", time.Since(start).Seconds())
	if dlqErr := p.dlq.PublishToDLQ(ctx, msg.ID, err.Error(), msg.Values); dlqErr != nil {
		log.Error().Err(dlqErr).Msg("Failed to publish to DLQ, leaving message pending")
		return
	}
	p.ack(ctx, msg.ID)
}

func (p *rejectionProcessor) ack(ctx context.Context, id string) {
	if err := p.consumer.Ack(ctx, id); err != nil {
		p.logger.Error().Err(err).Str("message_id", id).Msg("Failed to ack message")
	}
}

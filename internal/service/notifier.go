package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tourneyhub/settlement/internal/domain/outbox"
	"github.com/tourneyhub/settlement/internal/infrastructure/observability"
)

// Notifier relays notification intents from the outbox to the publisher.
// Entries are claimed with FOR UPDATE SKIP LOCKED inside one transaction, so
// concurrent relays never publish the same batch.
type Notifier struct {
	outboxRepo outbox.Repository
	txManager  TransactionManager
	publisher  Publisher
	batchSize  int
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

func NewNotifier(outboxRepo outbox.Repository, txManager TransactionManager, publisher Publisher, batchSize int, metrics *observability.Metrics, logger zerolog.Logger) *Notifier {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Notifier{
		outboxRepo: outboxRepo,
		txManager:  txManager,
		publisher:  publisher,
		batchSize:  batchSize,
		metrics:    metrics,
		logger:     logger,
	}
}

// RelayPending publishes one batch and returns how many entries were published.
// A publish failure is counted against the entry and retried on a later run
// until the entry is exhausted.
func (n *Notifier) RelayPending(ctx context.Context) (int, error) {
	published := 0
	err := n.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		published = 0
		entries, err := n.outboxRepo.GetPending(txCtx, n.batchSize)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := n.publisher.PublishNotification(ctx, entry); err != nil {
				attempt := *entry
				attempt.RetryCount++
				n.logger.Error().Err(err).
					Str("outbox_id", entry.ID.String()).
					Str("template", entry.EventType).
					Int("retry_count", attempt.RetryCount).
					Msg("failed to relay notification")
				n.metrics.OutboxRelay("failed")
				if err := n.outboxRepo.MarkFailed(txCtx, entry.ID); err != nil {
					return err
				}
				if attempt.Exhausted() {
					n.logger.Error().
						Str("outbox_id", entry.ID.String()).
						Str("template", entry.EventType).
						Str("recipient", entry.Recipient).
						Int("max_retries", entry.MaxRetries).
						Msg("notification dropped after max retries")
					n.metrics.OutboxRelay("exhausted")
				}
				continue
			}
			if err := n.outboxRepo.MarkPublished(txCtx, entry.ID); err != nil {
				return err
			}
			n.metrics.OutboxRelay("published")
			published++
		}
		return nil
	})
	return published, err
}

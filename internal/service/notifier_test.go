package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourneyhub/settlement/internal/domain/outbox"
	"github.com/tourneyhub/settlement/internal/infrastructure/observability"
	"github.com/tourneyhub/settlement/internal/testutil"
)

func TestNotifier_RelaysPendingOnce(t *testing.T) {
	repo := &testutil.MockOutboxRepository{}
	publisher := &testutil.MockPublisher{}
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, outbox.NewEntry("tournament_commission", uuid.New(), outbox.EventPaymentVerified, "org-1", nil)))
	require.NoError(t, repo.Insert(ctx, outbox.NewEntry("refund_request", uuid.New(), outbox.EventRefundRequested, "org-1", nil)))

	n := NewNotifier(repo, testutil.NewMockTransactionManager(), publisher, 10, nil, zerolog.Nop())

	published, err := n.RelayPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, published)
	assert.Len(t, publisher.Published(), 2)

	published, err = n.RelayPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, published)
	assert.Len(t, publisher.Published(), 2)
}

func TestNotifier_PublishFailureCountsRetry(t *testing.T) {
	repo := &testutil.MockOutboxRepository{}
	entry := outbox.NewEntry("refund_request", uuid.New(), outbox.EventRefundCompleted, "p-1", nil)
	entry.MaxRetries = 2
	require.NoError(t, repo.Insert(context.Background(), entry))

	publisher := &testutil.MockPublisher{
		PublishFunc: func(ctx context.Context, e *outbox.Entry) error { return errors.New("redis down") },
	}
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)
	n := NewNotifier(repo, testutil.NewMockTransactionManager(), publisher, 10, metrics, zerolog.Nop())

	for range 2 {
		published, err := n.RelayPending(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, published)
	}

	assert.Equal(t, 2, entry.RetryCount)
	assert.Equal(t, outbox.StatusFailed, entry.Status)
	assert.Equal(t, 2.0, promtest.ToFloat64(metrics.OutboxRelayed.WithLabelValues("failed")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.OutboxRelayed.WithLabelValues("exhausted")))

	published, err := n.RelayPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, published)
	assert.Equal(t, 2, entry.RetryCount)
}

func TestNotifier_ClaimErrorIsReturned(t *testing.T) {
	repo := &testutil.MockOutboxRepository{
		GetPendingFunc: func(ctx context.Context, limit int) ([]*outbox.Entry, error) {
			return nil, errors.New("connection refused")
		},
	}
	n := NewNotifier(repo, testutil.NewMockTransactionManager(), &testutil.MockPublisher{}, 0, nil, zerolog.Nop())

	_, err := n.RelayPending(context.Background())
	assert.Error(t, err)
}

package outbox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	aggregateID := uuid.New()
	payload := map[string]any{
		"tournament_id": "t-1",
		"amount_cents":  50000,
	}

	entry := NewEntry("tournament_commission", aggregateID, EventPaymentVerified, "org-1", payload)

	require.NotNil(t, entry)
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, "tournament_commission", entry.AggregateType)
	assert.Equal(t, aggregateID, entry.AggregateID)
	assert.Equal(t, EventPaymentVerified, entry.EventType)
	assert.Equal(t, "org-1", entry.Recipient)
	assert.Equal(t, payload, entry.Payload)
	assert.Equal(t, StatusPending, entry.Status)
	assert.Equal(t, 0, entry.RetryCount)
	assert.Equal(t, 5, entry.MaxRetries)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Nil(t, entry.PublishedAt)
}

func TestNewEntry_EmptyPayload(t *testing.T) {
	entry := NewEntry("refund_request", uuid.New(), EventRefundRequested, "", nil)

	require.NotNil(t, entry)
	assert.Nil(t, entry.Payload)
	assert.Equal(t, StatusPending, entry.Status)
}

func TestEntry_UniqueIDs(t *testing.T) {
	aggregateID := uuid.New()
	entry1 := NewEntry("refund_request", aggregateID, EventRefundAdvanced, "p-1", nil)
	entry2 := NewEntry("refund_request", aggregateID, EventRefundAdvanced, "p-1", nil)

	assert.NotEqual(t, entry1.ID, entry2.ID)
	assert.Equal(t, entry1.AggregateID, entry2.AggregateID)
}

func TestEntry_Exhausted(t *testing.T) {
	entry := NewEntry("refund_request", uuid.New(), EventRefundCompleted, "p-1", nil)
	assert.False(t, entry.Exhausted())

	entry.RetryCount = entry.MaxRetries
	assert.True(t, entry.Exhausted())
}

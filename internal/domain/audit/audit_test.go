package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent("admin-1", ActionPaymentVerified, "tournament_commission", "c-1", map[string]any{"decision": "approved"})

	require.NotNil(t, e)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, "admin-1", e.Actor)
	assert.Equal(t, ActionPaymentVerified, e.Action)
	assert.Equal(t, "c-1", e.EntityID)
	assert.Equal(t, "approved", e.Details["decision"])
	assert.False(t, e.CreatedAt.IsZero())
}

func TestNewEvent_DefaultsActor(t *testing.T) {
	e := NewEvent("", ActionRefundCreated, "refund_request", "r-1", nil)
	assert.Equal(t, "system", e.Actor)
}

func TestNop(t *testing.T) {
	var trail Trail = Nop{}
	assert.NoError(t, trail.Append(context.Background(), NewEvent("", ActionFeeCreated, "x", "y", nil)))
}

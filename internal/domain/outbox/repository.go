package outbox

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores notification intents next to the ledger rows that caused them.
type Repository interface {
	// Insert writes an intent; callers pass the context of the ledger transaction.
	Insert(ctx context.Context, entry *Entry) error

	// GetPending claims up to limit pending intents, oldest first. Claimed rows
	// stay locked until the surrounding transaction ends.
	GetPending(ctx context.Context, limit int) ([]*Entry, error)

	MarkPublished(ctx context.Context, id uuid.UUID) error

	// MarkFailed counts a failed relay attempt. The entry turns StatusFailed once exhausted.
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

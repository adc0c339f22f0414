package service

import (
	"context"

	"github.com/tourneyhub/settlement/internal/domain/audit"
	"github.com/tourneyhub/settlement/internal/domain/outbox"
	"github.com/tourneyhub/settlement/internal/domain/refund"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
)

// Stores groups the ledger store collaborators shared by the services.
type Stores struct {
	Commissions   settlement.CommissionRepository
	Fees          settlement.FeeRepository
	Verifications settlement.VerificationRepository
	Refunds       refund.Repository
	Outbox        outbox.Repository
	Audit         audit.Trail
	Tx            TransactionManager
}

// Locker serializes work on one key across processes.
type Locker interface {
	// Lock blocks until key is held. The returned func releases it.
	Lock(ctx context.Context, key string) (func(), error)
}

// Publisher delivers a relayed outbox entry to the notification channel.
type Publisher interface {
	PublishNotification(ctx context.Context, entry *outbox.Entry) error
}

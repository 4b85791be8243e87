package services

import (
	"context"

	"finanzas/internal/core"
)

// Notifier publishes ledger events for interested consumers. A nil Notifier
// is tolerated everywhere: delivery failures never fail the originating
// operation, they are logged and dropped.
type Notifier interface {
	TransactionCreated(ctx context.Context, userID string, txn core.Transaction) error
	TransactionDeleted(ctx context.Context, userID string, kind core.Kind, id string) error
	RecurrenceFired(ctx context.Context, userID string, kind core.Kind, count int) error
}

package repository

import (
	"context"

	"github.com/oksasatya/ppob-membership/internal/domain/entity"
)

// HistoryQuery selects a window of a user's active history, newest first.
// Take <= 0 means no limit.
type HistoryQuery struct {
	Skip int
	Take int
}

type TransactionHistoryRepository interface {
	// Create appends a ledger entry and fills ID and CreatedAt.
	// A clashing invoice number yields ErrDuplicateInvoice.
	Create(ctx context.Context, h *entity.TransactionHistory) error
	// FindLatest returns the most recently created entry system-wide.
	FindLatest(ctx context.Context) (*entity.TransactionHistory, error)
	ListByUser(ctx context.Context, userID string, q HistoryQuery) ([]entity.HistoryRecord, error)
}

// Transactor runs fn as a single atomic unit. Repositories called with the
// ctx handed to fn take part in the same transaction; any error rolls back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

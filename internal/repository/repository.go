package repository

import (
	"context"
	"time"

	"github.com/nkiryanov/pointledger/internal/models"
)

// Balance repository interface
type BalanceRepo interface {
	// Get user points
	// If the user has never been written must return zero points, not an error
	// forUpdate asks backend to hold user exclusion until the surrounding transaction ends
	GetBalance(ctx context.Context, userID int64, forUpdate bool) (models.UserPoint, error)

	// Set user points unconditionally, create the record if absent
	// UpdatedAt is set by the repository
	UpsertBalance(ctx context.Context, userID int64, points int64) (models.UserPoint, error)
}

// History repository interface
type HistoryRepo interface {
	// Append entry to the log and assign next global ID
	AppendHistory(ctx context.Context, userID int64, amount int64, txType models.TransactionType, at time.Time) (models.PointHistory, error)

	// List user entries in the order they were appended
	// Must return empty slice (not nil) if nothing found
	ListHistory(ctx context.Context, userID int64) ([]models.PointHistory, error)
}

type Storage interface {
	Balance() BalanceRepo
	History() HistoryRepo

	// Run fn in transaction
	// Writes made through the passed storage become visible together if fn returns nil
	// and are discarded otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}

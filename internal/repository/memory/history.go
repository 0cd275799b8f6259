package memory

import (
	"context"
	"time"

	"github.com/nkiryanov/pointledger/internal/models"
)

type HistoryRepo struct {
	db *db
	tx *pending
}

// ID is taken from global sequence at append time, like BIGSERIAL does
// Rolled back transactions leave gaps
func (r *HistoryRepo) AppendHistory(_ context.Context, userID int64, amount int64, txType models.TransactionType, at time.Time) (models.PointHistory, error) {
	h := models.PointHistory{
		ID:        r.db.lastID.Add(1),
		UserID:    userID,
		Amount:    amount,
		Type:      txType,
		Timestamp: at,
	}

	if r.tx != nil {
		r.tx.histories = append(r.tx.histories, h)
		return h, nil
	}

	r.db.mu.Lock()
	r.db.histories[userID] = append(r.db.histories[userID], h)
	r.db.mu.Unlock()

	return h, nil
}

// Returns a copy, callers may modify it freely
func (r *HistoryRepo) ListHistory(_ context.Context, userID int64) ([]models.PointHistory, error) {
	r.db.mu.RLock()
	stored := r.db.histories[userID]
	history := make([]models.PointHistory, len(stored), len(stored)+1)
	copy(history, stored)
	r.db.mu.RUnlock()

	if r.tx != nil {
		for _, h := range r.tx.histories {
			if h.UserID == userID {
				history = append(history, h)
			}
		}
	}

	return history, nil
}

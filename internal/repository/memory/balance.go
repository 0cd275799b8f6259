package memory

import (
	"context"

	"github.com/nkiryanov/pointledger/internal/models"
)

type BalanceRepo struct {
	db *db
	tx *pending
}

// forUpdate is ignored: the ledger service serializes writers per user
func (r *BalanceRepo) GetBalance(_ context.Context, userID int64, _ bool) (models.UserPoint, error) {
	if r.tx != nil {
		if p, ok := r.tx.points[userID]; ok {
			return p, nil
		}
	}

	r.db.mu.RLock()
	p, ok := r.db.points[userID]
	r.db.mu.RUnlock()

	if !ok {
		return models.UserPoint{UserID: userID, Points: 0, UpdatedAt: r.db.now()}, nil
	}

	return p, nil
}

func (r *BalanceRepo) UpsertBalance(_ context.Context, userID int64, points int64) (models.UserPoint, error) {
	p := models.UserPoint{UserID: userID, Points: points, UpdatedAt: r.db.now()}

	if r.tx != nil {
		r.tx.points[userID] = p
		return p, nil
	}

	r.db.mu.Lock()
	r.db.points[userID] = p
	r.db.mu.Unlock()

	return p, nil
}

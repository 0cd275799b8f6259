package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/pointledger/internal/models"
)

type HistoryRepo struct {
	DB DBTX
}

const appendPointHistory = `-- name: AppendPointHistory
INSERT INTO point_histories (user_id, amount, type, timestamp)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, amount, type, timestamp
`

func (r *HistoryRepo) AppendHistory(ctx context.Context, userID int64, amount int64, txType models.TransactionType, at time.Time) (models.PointHistory, error) {
	rows, _ := r.DB.Query(ctx, appendPointHistory, userID, amount, string(txType), at)
	h, err := pgx.CollectOneRow(rows, rowToPointHistory)
	if err != nil {
		return h, fmt.Errorf("db error: %w", err)
	}

	return h, nil
}

const listPointHistory = `-- name: ListPointHistory
SELECT id, user_id, amount, type, timestamp FROM point_histories
WHERE user_id = $1
ORDER BY id ASC
`

func (r *HistoryRepo) ListHistory(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	rows, _ := r.DB.Query(ctx, listPointHistory, userID)
	history, err := pgx.CollectRows(rows, rowToPointHistory)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if history == nil {
		history = []models.PointHistory{}
	}

	return history, nil
}

func rowToPointHistory(row pgx.CollectableRow) (models.PointHistory, error) {
	var h models.PointHistory
	var txType string
	err := row.Scan(&h.ID, &h.UserID, &h.Amount, &txType, &h.Timestamp)
	h.Type = models.TransactionType(txType)
	return h, err
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/pointledger/internal/apperrors"
	"github.com/nkiryanov/pointledger/internal/models"
)

type BalanceRepo struct {
	DB DBTX
}

// Transaction scoped advisory lock keyed by user id
// Works for users without a row yet, unlike SELECT ... FOR UPDATE
const lockUserPoint = `SELECT pg_advisory_xact_lock($1)`

const getUserPoint = `-- name: GetUserPoint
SELECT user_id, points, updated_at FROM user_points
WHERE user_id = $1
`

func (r *BalanceRepo) GetBalance(ctx context.Context, userID int64, forUpdate bool) (models.UserPoint, error) {
	if forUpdate {
		_, err := r.DB.Exec(ctx, lockUserPoint, userID)
		if err != nil {
			return models.UserPoint{}, fmt.Errorf("db error: %w", err)
		}
	}

	rows, _ := r.DB.Query(ctx, getUserPoint, userID)
	point, err := pgx.CollectOneRow(rows, rowToUserPoint)

	switch {
	case err == nil:
		return point, nil
	case errors.Is(err, pgx.ErrNoRows):
		return models.UserPoint{UserID: userID, Points: 0, UpdatedAt: time.Now()}, nil
	default:
		return point, fmt.Errorf("db error: %w", err)
	}
}

const upsertUserPoint = `-- name: UpsertUserPoint
INSERT INTO user_points (user_id, points, updated_at)
VALUES ($1, $2, clock_timestamp())
ON CONFLICT (user_id) DO UPDATE
SET points = EXCLUDED.points, updated_at = EXCLUDED.updated_at
RETURNING user_id, points, updated_at
`

func (r *BalanceRepo) UpsertBalance(ctx context.Context, userID int64, points int64) (models.UserPoint, error) {
	rows, _ := r.DB.Query(ctx, upsertUserPoint, userID, points)
	point, err := pgx.CollectOneRow(rows, rowToUserPoint)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return point, fmt.Errorf("points can't be negative: %w", apperrors.ErrInsufficientBalance)
		}

		return point, fmt.Errorf("db error: %w", err)
	}

	return point, nil
}

func rowToUserPoint(row pgx.CollectableRow) (models.UserPoint, error) {
	var p models.UserPoint
	err := row.Scan(&p.UserID, &p.Points, &p.UpdatedAt)
	return p, err
}

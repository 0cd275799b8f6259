package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/pointledger/internal/handlers/middleware"
	"github.com/nkiryanov/pointledger/internal/logger"
	"github.com/nkiryanov/pointledger/internal/metrics"
	"github.com/nkiryanov/pointledger/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	pointService pointService,
	metrics *metrics.Metrics,
	logger logger.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /point/{id}", handleGetPoint(pointService, logger))
	mux.Handle("GET /point/{id}/histories", handleListHistory(pointService, logger))
	mux.Handle("PATCH /point/{id}/charge", handleCharge(pointService, logger))
	mux.Handle("PATCH /point/{id}/use", handleUse(pointService, logger))

	mux.Handle("GET /metrics", metrics.Handler())

	handler := chain(mux,
		middleware.RequestID,
		middleware.LoggerMiddleware(logger),
		metrics.Middleware,
	)

	return handler
}

type pointService interface {
	// Never fails for unknown user: returns zero points
	GetBalance(ctx context.Context, userID int64) (models.UserPoint, error)

	// Returns empty slice for unknown user
	GetHistory(ctx context.Context, userID int64) ([]models.PointHistory, error)

	// If amount negative: has to return apperrors.ErrInvalidAmount
	Charge(ctx context.Context, userID int64, amount int64) (models.UserPoint, error)

	// If amount negative: has to return apperrors.ErrInvalidAmount
	// If not enough points: has to return apperrors.ErrInsufficientBalance
	Use(ctx context.Context, userID int64, amount int64) (models.UserPoint, error)
}

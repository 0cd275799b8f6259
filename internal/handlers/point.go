package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/nkiryanov/pointledger/internal/apperrors"
	"github.com/nkiryanov/pointledger/internal/handlers/render"
	"github.com/nkiryanov/pointledger/internal/logger"
	"github.com/nkiryanov/pointledger/internal/models"
)

// Max accepted body for charge/use: a JSON integer
const maxAmountBodySize = 64

type pointResponse struct {
	UserID    int64     `json:"user_id"`
	Points    int64     `json:"points"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newPointResponse(p models.UserPoint) pointResponse {
	return pointResponse{UserID: p.UserID, Points: p.Points, UpdatedAt: p.UpdatedAt}
}

type historyResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Amount    int64     `json:"amount"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type pathParams struct {
	UserID int64 `json:"id" validate:"gt=0"`
}

// Read and validate {id} path value
// Writes error response if it is not a positive integer
func userIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		render.ServiceError(w, "User id must be an integer", http.StatusBadRequest)
		return 0, false
	}

	if err := render.Validate(w, pathParams{UserID: id}); err != nil {
		return 0, false
	}

	return id, true
}

func handleGetPoint(pointService pointService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r)
		if !ok {
			return
		}

		point, err := pointService.GetBalance(r.Context(), userID)

		switch err {
		case nil:
			render.JSON(w, newPointResponse(point))
		default:
			l.Error("Failed to get balance", "user_id", userID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListHistory(pointService pointService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r)
		if !ok {
			return
		}

		history, err := pointService.GetHistory(r.Context(), userID)

		switch err {
		case nil:
			res := make([]historyResponse, 0, len(history))
			for _, h := range history {
				res = append(res, historyResponse{
					ID:        h.ID,
					UserID:    h.UserID,
					Amount:    h.Amount,
					Type:      string(h.Type),
					Timestamp: h.Timestamp,
				})
			}
			render.JSON(w, res)
		default:
			l.Error("Failed to get history", "user_id", userID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

type mutateFunc func(ctx context.Context, userID int64, amount int64) (models.UserPoint, error)

func handleCharge(pointService pointService, l logger.Logger) http.Handler {
	return handleMutate(pointService.Charge, l.With("operation", "charge"))
}

func handleUse(pointService pointService, l logger.Logger) http.Handler {
	return handleMutate(pointService.Use, l.With("operation", "use"))
}

// Body is a bare JSON integer: the amount
func handleMutate(mutate mutateFunc, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxAmountBodySize)
		amount, err := render.Bind[int64](w, r)
		if err != nil {
			return
		}

		point, err := mutate(r.Context(), userID, amount)

		switch {
		case err == nil:
			render.JSON(w, newPointResponse(point))
		case errors.Is(err, apperrors.ErrInsufficientBalance):
			render.ServiceError(w, "Insufficient balance", http.StatusConflict)
		case errors.Is(err, apperrors.ErrInvalidAmount):
			render.ServiceError(w, "Invalid amount", http.StatusBadRequest)
		default:
			l.Error("Failed to update points", "user_id", userID, "amount", amount, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

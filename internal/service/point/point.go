package point

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nkiryanov/pointledger/internal/apperrors"
	"github.com/nkiryanov/pointledger/internal/keylock"
	"github.com/nkiryanov/pointledger/internal/logger"
	"github.com/nkiryanov/pointledger/internal/metrics"
	"github.com/nkiryanov/pointledger/internal/models"
	"github.com/nkiryanov/pointledger/internal/repository"
)

const (
	operationCharge = "charge"
	operationUse    = "use"
)

type observer interface {
	ObserveOperation(operation string, result string)
	ObserveLockWait(d time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string) {}
func (noopObserver) ObserveLockWait(time.Duration)   {}

type Option func(*PointService)

func WithObserver(o observer) Option {
	return func(s *PointService) {
		s.observer = o
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *PointService) {
		s.logger = l
	}
}

// PointService is the only writer of balances and history
// Charge and Use for the same user run one at a time; different users never wait for each other
type PointService struct {
	storage repository.Storage
	locks   *keylock.Locker

	observer observer
	logger   logger.Logger
}

func NewService(storage repository.Storage, opts ...Option) *PointService {
	s := &PointService{
		storage:  storage,
		locks:    keylock.New(),
		observer: noopObserver{},
		logger:   logger.NewNoOpLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *PointService) GetBalance(ctx context.Context, userID int64) (models.UserPoint, error) {
	point, err := s.storage.Balance().GetBalance(ctx, userID, false)
	if err != nil {
		return point, fmt.Errorf("can't get balance. Err: %w", errors.Join(apperrors.ErrInternal, err))
	}

	return point, nil
}

func (s *PointService) GetHistory(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	history, err := s.storage.History().ListHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("can't get history. Err: %w", errors.Join(apperrors.ErrInternal, err))
	}

	return history, nil
}

// Charge adds amount to user points
func (s *PointService) Charge(ctx context.Context, userID int64, amount int64) (models.UserPoint, error) {
	if amount < 0 {
		s.observer.ObserveOperation(operationCharge, metrics.ResultInvalidAmount)
		return models.UserPoint{}, fmt.Errorf("charge amount can't be negative: %w", apperrors.ErrInvalidAmount)
	}

	return s.apply(ctx, operationCharge, userID, func(current int64) (int64, int64, error) {
		if current > math.MaxInt64-amount {
			return 0, 0, fmt.Errorf("charge would overflow balance: %w", apperrors.ErrInvalidAmount)
		}
		return current + amount, amount, nil
	})
}

// Use takes amount from user points if there are enough of them
func (s *PointService) Use(ctx context.Context, userID int64, amount int64) (models.UserPoint, error) {
	if amount < 0 {
		s.observer.ObserveOperation(operationUse, metrics.ResultInvalidAmount)
		return models.UserPoint{}, fmt.Errorf("use amount can't be negative: %w", apperrors.ErrInvalidAmount)
	}

	return s.apply(ctx, operationUse, userID, func(current int64) (int64, int64, error) {
		if current < amount {
			return 0, 0, apperrors.ErrInsufficientBalance
		}
		return current - amount, -amount, nil
	})
}

// compute gets current points and returns new points with the signed history amount
type compute func(current int64) (points int64, delta int64, err error)

// apply runs read -> validate -> write balance -> append history under user lock
// Balance and history are written in one storage transaction: both or nothing
func (s *PointService) apply(ctx context.Context, operation string, userID int64, fn compute) (models.UserPoint, error) {
	var result models.UserPoint

	waitStart := time.Now()
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		s.observer.ObserveOperation(operation, metrics.ResultError)
		return result, fmt.Errorf("can't acquire user lock. Err: %w", err)
	}
	defer unlock()
	s.observer.ObserveLockWait(time.Since(waitStart))

	txType := models.TransactionTypeCharge
	if operation == operationUse {
		txType = models.TransactionTypeUse
	}

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		current, err := storage.Balance().GetBalance(ctx, userID, true)
		if err != nil {
			return errors.Join(apperrors.ErrInternal, err)
		}

		points, delta, err := fn(current.Points)
		if err != nil {
			return err
		}

		updated, err := storage.Balance().UpsertBalance(ctx, userID, points)
		if err != nil {
			return errors.Join(apperrors.ErrInternal, err)
		}

		_, err = storage.History().AppendHistory(ctx, userID, delta, txType, updated.UpdatedAt)
		if err != nil {
			return errors.Join(apperrors.ErrInternal, err)
		}

		result = updated
		return nil
	})

	switch {
	case err == nil:
		s.observer.ObserveOperation(operation, metrics.ResultOK)
		s.logger.Debug("Points updated", "operation", operation, "user_id", userID, "points", result.Points)
		return result, nil
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		s.observer.ObserveOperation(operation, metrics.ResultInsufficientBalance)
		return models.UserPoint{}, fmt.Errorf("can't %s points: %w", operation, err)
	case errors.Is(err, apperrors.ErrInvalidAmount):
		s.observer.ObserveOperation(operation, metrics.ResultInvalidAmount)
		return models.UserPoint{}, fmt.Errorf("can't %s points: %w", operation, err)
	default:
		s.observer.ObserveOperation(operation, metrics.ResultError)
		s.logger.Error("Points update failed", "operation", operation, "user_id", userID, "error", err)
		if !errors.Is(err, apperrors.ErrInternal) {
			err = errors.Join(apperrors.ErrInternal, err)
		}
		return models.UserPoint{}, fmt.Errorf("can't %s points. Err: %w", operation, err)
	}
}

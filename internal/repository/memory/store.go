package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nkiryanov/pointledger/internal/models"
	"github.com/nkiryanov/pointledger/internal/repository"
)

// Process wide tables
// mu guards maps only and is never held while caller code runs
type db struct {
	mu        sync.RWMutex
	points    map[int64]models.UserPoint
	histories map[int64][]models.PointHistory

	lastID atomic.Int64
	now    func() time.Time
}

// Writes staged by InTx, applied to db on commit
type pending struct {
	points    map[int64]models.UserPoint
	histories []models.PointHistory
}

type Option func(*db)

// Use custom clock for UpdatedAt and default balances
func WithClock(now func() time.Time) Option {
	return func(d *db) {
		d.now = now
	}
}

type Storage struct {
	db *db
	tx *pending // nil outside of InTx
}

func NewStorage(opts ...Option) repository.Storage {
	d := &db{
		points:    make(map[int64]models.UserPoint),
		histories: make(map[int64][]models.PointHistory),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return &Storage{db: d}
}

func (s *Storage) Balance() repository.BalanceRepo {
	return &BalanceRepo{db: s.db, tx: s.tx}
}

func (s *Storage) History() repository.HistoryRepo {
	return &HistoryRepo{db: s.db, tx: s.tx}
}

// Stage writes and apply them under one write lock
// Nested InTx joins the outer transaction
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx := &pending{points: make(map[int64]models.UserPoint)}
	if err := fn(&Storage{db: s.db, tx: tx}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.commit(tx)
	return nil
}

func (d *db) commit(tx *pending) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for userID, p := range tx.points {
		d.points[userID] = p
	}
	for _, h := range tx.histories {
		d.histories[h.UserID] = append(d.histories[h.UserID], h)
	}
}

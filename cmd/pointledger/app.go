package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/pointledger/internal/db"
	"github.com/nkiryanov/pointledger/internal/handlers"
	"github.com/nkiryanov/pointledger/internal/logger"
	"github.com/nkiryanov/pointledger/internal/metrics"
	"github.com/nkiryanov/pointledger/internal/repository"
	"github.com/nkiryanov/pointledger/internal/repository/memory"
	"github.com/nkiryanov/pointledger/internal/repository/postgres"
	"github.com/nkiryanov/pointledger/internal/service/point"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger

	// Release storage resources (db pool). Never nil
	Close func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Initialize storage: postgres if dsn set, in-memory otherwise
	var storage repository.Storage
	closeFn := func() {}

	if c.DatabaseDSN == "" {
		logger.Warn("Database DSN is empty, balances are kept in memory")
		storage = memory.NewStorage()
	} else {
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		storage = postgres.NewStorage(pool)
		closeFn = pool.Close
	}

	// Initialize services
	m := metrics.New()
	pointService := point.NewService(storage,
		point.WithObserver(m),
		point.WithLogger(logger.With("service", "point")),
	)

	mux := handlers.NewRouter(pointService, m, logger)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Logger:     logger,
		Close:      closeFn,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
// Returns nil if server stopped because of context
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.Close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Logger.Info("Starting server", "address", s.ListenAddr)

		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := httpServer.Shutdown(timeoutCtx)
		if errors.Is(err, context.DeadlineExceeded) {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
			_ = httpServer.Close()
		}
		s.Logger.Info("HTTP server stopped")

		return nil
	})

	return g.Wait()
}

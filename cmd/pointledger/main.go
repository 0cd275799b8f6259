package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func run(ctx context.Context, getenv func(string) string, getwd func() (string, error), args []string) error {
	config, err := Load(getenv, getwd, args)
	if err != nil {
		return fmt.Errorf("can't load config. Err: %w", err)
	}

	srv, err := NewServerApp(ctx, config)
	if err != nil {
		return fmt.Errorf("can't initialize app. Err: %w", err)
	}

	return srv.Run(ctx)
}

func main() {
	// Initialize context that cancelled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv, os.Getwd, os.Args[1:]); err != nil {
		slog.Error("Point ledger stopped with error", "error", err.Error())
		stop()
		os.Exit(1)
	}
}

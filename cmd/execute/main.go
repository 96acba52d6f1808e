package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tierflow/config"
	"tierflow/customer"
	"tierflow/db"
	"tierflow/registration"
)

// execute runs the approved-registration commit step once and exits. Intended
// for cron-style scheduling next to the api's in-process ticker.
func main() {
	if err := run(); err != nil {
		slog.Error("execute exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("bootstrap database pool: %w", err)
	}
	defer pool.Close()

	repo := registration.NewRepository(pool)
	executor := registration.NewExecutor(pool, repo, customer.NewRepository(pool), logger)

	result, err := executor.ExecuteApproved(ctx)
	if err != nil {
		return fmt.Errorf("execute approved registrations: %w", err)
	}

	logger.Info("execution run finished",
		slog.Int("updated_count", result.UpdatedCount),
		slog.Any("updated_ids", result.UpdatedIDs))

	return nil
}

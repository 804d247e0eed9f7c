// Package main provides the due-date sweeper entry point.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lending-engine/internal/config"
	"github.com/lending-engine/internal/logging"
	"github.com/lending-engine/internal/retry"
	"github.com/lending-engine/internal/storage"
	"github.com/lending-engine/internal/worker"
)

func main() {
	log.Println("Due-date sweeper starting...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)
	logger := logging.GetGlobalLogger()

	ctx, cancel := context.WithCancel(logging.WithLogger(context.Background(), logger))
	defer cancel()

	var postgres *storage.PostgresDB
	err = retry.WithBackoff(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
		var connErr error
		postgres, connErr = storage.NewPostgresDB(&cfg.Database.Postgres)
		return connErr
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()
	logger.Info("Connected to Postgres")

	loanRepo := storage.NewLoanRepository(postgres)
	sweeper := worker.NewSweeper(loanRepo, cfg.Sweeper.Interval, cfg.Sweeper.BatchSize)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
		cancel()
	}()

	sweeper.Run(ctx)
}

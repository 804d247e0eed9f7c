// Package main provides the API server entry point for the lending engine.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lending-engine/internal/api"
	"github.com/lending-engine/internal/circuitbreaker"
	"github.com/lending-engine/internal/config"
	"github.com/lending-engine/internal/confirm"
	"github.com/lending-engine/internal/ledger"
	"github.com/lending-engine/internal/logging"
	"github.com/lending-engine/internal/pricing"
	"github.com/lending-engine/internal/retry"
	"github.com/lending-engine/internal/service"
	"github.com/lending-engine/internal/storage"
)

func main() {
	log.Println("Lending Engine API Server starting...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	ctx := logging.WithLogger(context.Background(), logger)

	// Connect to Postgres, retrying while the database comes up
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

	// Connect to Redis
	var redisCache *storage.RedisCache
	err = retry.WithBackoff(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
		var connErr error
		redisCache, connErr = storage.NewRedisCache(&cfg.Database.Redis)
		return connErr
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisCache.Close()
	logger.Info("Connected to Redis")

	// Ledger RPC client behind a circuit breaker
	breaker := circuitbreaker.New(circuitbreaker.DefaultConfig("ledger-rpc"))
	ledgerClient := ledger.NewRPCClient(&ledger.RPCClientConfig{
		Endpoint:       cfg.Ledger.RPCEndpoint,
		RequestTimeout: cfg.Ledger.RequestTimeout,
		RequestsPerSec: cfg.Ledger.RequestsPerSec,
		Breaker:        breaker,
	})

	confirmer := confirm.New(ledgerClient, cfg.Ledger.ConfirmInterval, cfg.Ledger.ConfirmTimeout)

	// Repositories and caches
	userRepo := storage.NewUserRepository(postgres)
	loanRepo := storage.NewLoanRepository(postgres)
	lendingRepo := storage.NewLendingRepository(postgres)
	scoreCache := storage.NewScoreCache(redisCache, cfg.Scoring.ScoreCacheTTL, cfg.Pricing.CacheTTL)

	priceClient := pricing.NewClient(cfg.Pricing.Endpoint, scoreCache)

	// Services
	loanService := service.NewLoanService(&service.LoanServiceConfig{
		Loans:            loanRepo,
		Users:            userRepo,
		Ledger:           ledgerClient,
		Confirmer:        confirmer,
		HistoryWindow:    cfg.Ledger.HistoryWindow,
		ScoreCache:       scoreCache,
		CustodialAddress: cfg.Ledger.CustodialAddress,
	})

	lendingService := service.NewLendingService(&service.LendingServiceConfig{
		Positions:        lendingRepo,
		Users:            userRepo,
		Ledger:           ledgerClient,
		Confirmer:        confirmer,
		Pricing:          priceClient,
		CustodialAddress: cfg.Ledger.CustodialAddress,
	})

	// HTTP server
	server := api.NewServer(
		&api.ServerConfig{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			WalletRPS:       cfg.RateLimit.WalletRPS,
		},
		loanService,
		lendingService,
		userRepo,
		map[string]api.HealthChecker{
			"postgres": postgres.Ping,
			"redis":    redisCache.Ping,
		},
	)

	// Start server and wait for shutdown signal
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.WithError(err).Fatal("Server stopped unexpectedly")
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	logger.Info("Server stopped")
}

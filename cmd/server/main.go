package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Crypto-Wallet-Backend/internal/api"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/coincap"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/config"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/database"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/logging"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/repository"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/scheduler"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/service"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/version"
	"github.com/ndewijer/Crypto-Wallet-Backend/internal/workerpool"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	log.Logger = logger

	logger.Info().Str("version", version.Version).Msg("Starting crypto wallet backend")

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	schemaVersion, err := database.Migrate(context.Background(), db)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database")
	}
	logger.Info().
		Str("path", cfg.Database.Path).
		Int64("schema_version", schemaVersion).
		Msg("Connected to database")

	// Create repositories
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)

	prices := coincap.NewPriceClient(
		coincap.WithBaseURL(cfg.CoinCap.BaseURL),
		coincap.WithAPIKey(cfg.CoinCap.APIKey),
		coincap.WithRateLimit(cfg.CoinCap.RateLimit),
		coincap.WithTimeout(time.Duration(cfg.CoinCap.Timeout)),
		coincap.WithLogger(logger),
	)

	pool := workerpool.New(cfg.PriceRefresh.Workers, logger)
	pool.Start()

	// Create services
	systemService := service.NewSystemService(db)
	walletService := service.NewWalletService(
		db,
		userRepo,
		walletRepo,
		assetRepo,
		holdingRepo,
		prices,
		logger,
	)
	evaluationService := service.NewEvaluationService(
		walletService,
		prices,
		cfg.PriceRefresh.Workers,
		logger,
	)
	refreshService := service.NewPriceRefreshService(
		assetRepo,
		prices,
		pool,
		logger,
	)

	// Schedule price refreshes
	sched := scheduler.New(logger)
	if err := sched.AddJob(cfg.PriceRefresh.Cron, refreshService); err != nil {
		logger.Fatal().Err(err).Msg("Failed to schedule price refresh")
	}
	sched.Start()
	if cfg.PriceRefresh.OnStart {
		sched.RunNow(refreshService)
	}

	// Create router
	router := api.NewRouter(api.Services{
		System:       systemService,
		Wallet:       walletService,
		Evaluation:   evaluationService,
		PriceRefresh: refreshService,
	}, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop the scheduler before the pool so no batch is submitted to a closed pool.
	sched.Stop()
	pool.Stop()

	logger.Info().Msg("Server exited")
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"circdesk/database"
	"circdesk/internal/config"
	"circdesk/internal/http-api/repository"
	"circdesk/internal/http-api/service"
)

// holds-sweeper runs the expired-hold sweep on a fixed interval under a
// configured staff account. Safe to run alongside the api server; each
// expired hold is processed independently.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if cfg.SweeperUserID == "" {
		log.Fatal("SWEEPER_USER_ID is required: the sweep runs as a staff account")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	titleRepo := repository.NewTitleRepository(db)
	copyRepo := repository.NewCopyRepository(db)
	holdRepo := repository.NewHoldRepository(db)
	tx := repository.NewTxRunner(db)

	policy := service.NewAccessPolicy(userRepo)
	holdService := service.NewHoldService(holdRepo, titleRepo, copyRepo, policy, tx, service.NewClock(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	logger.Info("holds sweeper started", "interval", cfg.SweepInterval)
	sweep(ctx, holdService, cfg.SweeperUserID, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("holds sweeper stopping")
			return
		case <-ticker.C:
			sweep(ctx, holdService, cfg.SweeperUserID, logger)
		}
	}
}

func sweep(ctx context.Context, holds service.HoldService, sweeperID string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	expired, err := holds.ProcessExpiredHolds(ctx, sweeperID)
	if err != nil {
		logger.Error("sweep failed", "error", err)
		return
	}
	if len(expired) > 0 {
		logger.Info("sweep expired holds", "count", len(expired))
	}
}

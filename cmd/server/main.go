package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"slotswap/internal/app"
	"slotswap/internal/auth"
	"slotswap/internal/config"
	"slotswap/internal/controller"
	"slotswap/internal/service"
	"slotswap/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	st := postgres.New(pool)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	authService := service.NewAuthService(st, tokens, logger)
	slotService := service.NewSlotService(st, logger)
	swapService := service.NewSwapService(st, logger)

	ctrl := controller.New(authService, slotService, swapService, logger)
	server := app.NewServer(cfg.ListenAddr, ctrl.Routes(), logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Starting slotswap server", zap.String("environment", cfg.Environment))

	if err := server.Start(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

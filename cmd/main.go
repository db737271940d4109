package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"

	"github.com/aegisx-boilerplate/aegisx-auth/config"
	"github.com/aegisx-boilerplate/aegisx-auth/db"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/domain"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/handler"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/repository/memory"
	repo "github.com/aegisx-boilerplate/aegisx-auth/internal/auth/repository/postgres"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/service"
	"github.com/aegisx-boilerplate/aegisx-auth/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Init(cfg.Log.Level)

	ctx := context.Background()

	var store domain.UserRepository
	if cfg.Database.URL != "" {
		if err := db.RunMigrations(cfg.Database); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
		pool, err := db.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		store = repo.NewPostgresRepository(pool)
	} else {
		logger.Warn().Msg("no database URL configured, using in-memory store")
		store = memory.NewMemoryRepository()
	}

	tokenService, err := service.NewTokenService(cfg.Auth)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid token configuration")
	}

	sessionService := service.NewSessionService(store, tokenService, cfg)
	authHandler := handler.NewAuthHandler(sessionService)

	app := fiber.New()
	app.Use(logger.Recovery())
	app.Use(logger.RequestLogger())
	handler.RegisterRoutes(app, authHandler)

	// The sweep is driven from here; the core never self-schedules.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Auth.CleanupSchedule, func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := sessionService.CleanupExpiredTokens(sweepCtx); err != nil {
			logger.Error().Err(err).Msg("token sweep failed")
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("invalid cleanup schedule")
	}
	sweeper.Start()
	defer sweeper.Stop()

	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		if err := app.Listen(addr); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}

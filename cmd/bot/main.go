package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentkyo/jadlog-bot/internal/api"
	"github.com/agentkyo/jadlog-bot/internal/core/service"
	"github.com/agentkyo/jadlog-bot/internal/infrastructure/carrier/jadlog"
	"github.com/agentkyo/jadlog-bot/internal/infrastructure/config"
	mongodb "github.com/agentkyo/jadlog-bot/internal/infrastructure/db/mongo"
	redisdb "github.com/agentkyo/jadlog-bot/internal/infrastructure/db/redis"
	"github.com/agentkyo/jadlog-bot/internal/infrastructure/telegram"
	"github.com/agentkyo/jadlog-bot/internal/scheduler"
	"github.com/agentkyo/jadlog-bot/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		stdlog.Fatalf("failed to load configuration: %v", err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})
	log.Info().Str("env", cfg.Env).Msg("starting jadlog-bot")

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	repo := mongodb.NewPackageRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure mongodb indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	// --- Messaging + core service ---
	botAPI, err := telegram.Connect(cfg.BotToken, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to authenticate with telegram")
	}

	tracker := jadlog.NewClient(cfg.JadlogBaseURL, log)
	svc := service.NewRefreshService(
		tracker,
		repo,
		telegram.NewNotifier(botAPI),
		redisdb.NewFailureTracker(rdb),
		log,
	)

	// --- Background workers ---
	bot := telegram.NewBot(botAPI, svc, log)
	go bot.Run(ctx)

	sched := scheduler.New(svc, cfg.RefreshEvery, log)
	go sched.Run(ctx)

	// --- Operational HTTP surface ---
	e := api.NewRouter(svc, db, rdb, cfg.AdminJWTSecret, log)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}

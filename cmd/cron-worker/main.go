package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendora-dev/vendora-backend/internal/app"
	"github.com/vendora-dev/vendora-backend/internal/cron"
	"github.com/vendora-dev/vendora-backend/pkg/config"
	"github.com/vendora-dev/vendora-backend/pkg/db"
	"github.com/vendora-dev/vendora-backend/pkg/logger"
	"github.com/vendora-dev/vendora-backend/pkg/metrics"
	"github.com/vendora-dev/vendora-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	services := app.New(cfg, dbClient, redisClient, nil, logg)

	poolMetrics := metrics.NewPoolMetrics(prometheus.DefaultRegisterer)
	registry := cron.NewRegistry(
		cron.NewPoolHealthJob(cron.PoolHealthJobParams{
			Wallets:     services.Wallets,
			Locations:   services.Locations,
			Notifier:    services.Notifier,
			Metrics:     poolMetrics,
			AdminChatID: cfg.Telegram.AdminChatID,
			AlertRatio:  cfg.Shop.WalletAlertRatio,
		}),
		cron.NewRequestCleanupJob(services.Requests),
		cron.NewCouponExpiryJob(services.Coupons),
	)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && ctx.Err() == nil {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

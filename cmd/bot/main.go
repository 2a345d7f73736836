package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/vendora-dev/vendora-backend/internal/app"
	"github.com/vendora-dev/vendora-backend/internal/ops"
	"github.com/vendora-dev/vendora-backend/pkg/config"
	"github.com/vendora-dev/vendora-backend/pkg/db"
	"github.com/vendora-dev/vendora-backend/pkg/logger"
	"github.com/vendora-dev/vendora-backend/pkg/migrate"
	"github.com/vendora-dev/vendora-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "bot"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "bot",
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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
	_ = services // handed to the chat transport once it attaches

	addr := ":" + cfg.App.OpsPort
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "core services wired, starting ops server")

	server := &http.Server{
		Addr: addr,
		Handler: ops.NewRouter(ops.ServerParams{
			Logger: logg,
			DB:     dbClient,
			Redis:  redisClient,
		}),
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "ops server stopped unexpectedly", err)
		os.Exit(1)
	}
}

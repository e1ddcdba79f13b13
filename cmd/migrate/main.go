package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/migrate"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	version, err := migrate.Apply(ctx, pool)
	if err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	logger.Info("migrations applied", zap.Uint("version", version))
}

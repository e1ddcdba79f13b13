package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
	"storefront/internal/seed"
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

	if err := seed.Apply(ctx, productrepo.NewPostgres(pool, logger), categoryrepo.NewPostgres(pool), logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
}

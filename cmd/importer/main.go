package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/importer"
	"storefront/internal/logging"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to the product CSV export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

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

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.String("file", filePath), zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, productrepo.NewPostgres(pool, logger), categoryrepo.NewPostgres(pool), logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Int("imported", count), zap.Error(err))
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/lineitem"
	"storefront/internal/logging"
	"storefront/internal/redisx"
	categoryrepo "storefront/internal/repository/category"
	newsletterrepo "storefront/internal/repository/newsletter"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"
	accountsvc "storefront/internal/service/account"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	checkoutsvc "storefront/internal/service/checkout"
	newslettersvc "storefront/internal/service/newsletter"
	productsvc "storefront/internal/service/product"
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

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	var (
		store       lineitem.Store
		productRepo = productrepo.NewPostgres(dbpool, logger)
	)
	if cfg.RedisURL != "" {
		rdb, err := redisx.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		store = lineitem.NewRedis(rdb, cfg.SessionTTL, logger)
		productRepo = productrepo.NewCached(productRepo, rdb, cfg.CatalogCacheTTL, logger)
		logger.Info("session store: redis", zap.Duration("ttl", cfg.SessionTTL))
	} else {
		store = lineitem.NewMemory()
		logger.Warn("session store: in-memory, sessions are lost on restart")
	}

	productService := productsvc.New(productRepo)
	categoryService := categorysvc.New(categoryrepo.NewPostgres(dbpool))
	cartService := cartsvc.New(store, productService, logger)
	wishlistService := cartsvc.NewWishlist(store, productService, cartService)
	accountService := accountsvc.New(userrepo.NewPostgres(dbpool, logger), store, logger)
	checkoutService := checkoutsvc.New(cartService, accountService, orderrepo.NewPostgres(dbpool, logger), store, cfg.ImageURLHost, logger)
	newsletterService := newslettersvc.New(newsletterrepo.NewPostgres(dbpool), logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		ProductSvc:    productService,
		CategorySvc:   categoryService,
		CartSvc:       cartService,
		WishlistSvc:   wishlistService,
		CheckoutSvc:   checkoutService,
		AccountSvc:    accountService,
		NewsletterSvc: newsletterService,
		Sessions:      anonymoussvc.New(),
		Changes:       store,
		ImageHost:     cfg.ImageURLHost,
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: cfg.SecureCookies,
		SessionTTL:    cfg.SessionTTL,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/willowgrove/storefront/internal/adapter/handler"
	"github.com/willowgrove/storefront/internal/adapter/payment"
	"github.com/willowgrove/storefront/internal/adapter/storage"
	"github.com/willowgrove/storefront/internal/config"
	"github.com/willowgrove/storefront/internal/metrics"
	"github.com/willowgrove/storefront/internal/port"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Order storage: MySQL when configured, in-memory otherwise.
	var store port.OrderStore
	var db *sql.DB
	if cfg.Server.MySQLDSN != "" {
		db, err = sql.Open("mysql", cfg.Server.MySQLDSN)
		if err != nil {
			logger.Fatal("failed to open mysql", zap.Error(err))
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("failed to ping mysql", zap.Error(err))
		}
		store = storage.NewMySQLOrderStore(db)
		logger.Info("using mysql order store")
	} else {
		store = storage.NewMemoryOrderStore()
		logger.Info("using in-memory order store")
	}

	// Payment processor: Stripe when a key is configured, local otherwise.
	var intents port.IntentCreator
	if cfg.Stripe.SecretKey != "" {
		intents = payment.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.PaymentMethod)
		logger.Info("using stripe payment processor")
	} else {
		intents = payment.NewLocal()
		logger.Info("using local payment processor")
	}

	serverMetrics := metrics.NewServer(nil)
	srv := handler.NewServer(store, intents, logger, serverMetrics,
		decimal.NewFromFloat(cfg.Checkout.TaxRate))

	router := srv.Router()
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", zap.Error(err))
	}

	if db != nil {
		db.Close()
	}
	logger.Info("stopped")
}

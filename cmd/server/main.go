package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appbilling "github.com/construct/backend/internal/application/billing"
	appledger "github.com/construct/backend/internal/application/ledger"
	"github.com/construct/backend/internal/domain/shared"
	"github.com/construct/backend/internal/infrastructure/cache"
	"github.com/construct/backend/internal/infrastructure/config"
	"github.com/construct/backend/internal/infrastructure/event"
	"github.com/construct/backend/internal/infrastructure/logger"
	"github.com/construct/backend/internal/infrastructure/persistence"
	"github.com/construct/backend/internal/interfaces/http/handler"
	"github.com/construct/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Local overrides from .env; silently absent in deployed environments
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting accounting service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	ledgerScope := persistence.NewGormLedgerScope(db.DB)
	billingScope := persistence.NewGormBillingScope(db.DB)

	// Event publishing: Kafka when configured, in-process bus otherwise
	var events shared.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := event.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer func() {
			_ = kafkaPublisher.Close()
		}()
		events = kafkaPublisher
		log.Info("Kafka event publishing enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		events = event.NewInMemoryEventBus(log)
	}

	// Payment idempotency: Redis when configured, local map otherwise
	var idempotency appbilling.IdempotencyStore
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = store.Close()
		}()
		idempotency = store
		log.Info("Redis idempotency store enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		idempotency = cache.NewInMemoryIdempotencyStore()
	}

	// Application services
	accountService := appledger.NewAccountService(accountRepo)
	transactionService := appledger.NewTransactionService(transactionRepo, ledgerScope, events)
	invoiceService := appbilling.NewInvoiceService(invoiceRepo, billingScope)
	paymentService := appbilling.NewPaymentService(paymentRepo, billingScope, idempotency, events)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.Setup(log, cfg.HTTP.CORSAllowOrigins, router.Handlers{
		Account:     handler.NewAccountHandler(accountService),
		Transaction: handler.NewTransactionHandler(transactionService),
		Invoice:     handler.NewInvoiceHandler(invoiceService),
		Payment:     handler.NewPaymentHandler(paymentService),
		Ping:        db.Ping,
	})

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}

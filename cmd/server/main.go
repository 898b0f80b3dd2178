package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	applicationledger "github.com/erp/ledgercore/internal/application/ledger"
	"github.com/erp/ledgercore/internal/domain/ledger"
	"github.com/erp/ledgercore/internal/infrastructure/auth"
	"github.com/erp/ledgercore/internal/infrastructure/cache"
	"github.com/erp/ledgercore/internal/infrastructure/config"
	"github.com/erp/ledgercore/internal/infrastructure/logger"
	"github.com/erp/ledgercore/internal/infrastructure/persistence"
	"github.com/erp/ledgercore/internal/infrastructure/telemetry"
	"github.com/erp/ledgercore/internal/interfaces/http/handler"
	"github.com/erp/ledgercore/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "ISO8601",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("starting ledger service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize distributed tracing
	tracer, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Tracing.Enabled,
		CollectorEndpoint: cfg.Tracing.CollectorEndpoint,
		SamplingRatio:     cfg.Tracing.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Tracing.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	// Initialize database connection with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	// Initialize redis client for the period cache
	var redisClient *redis.Client
	if cfg.Ledger.PeriodCacheEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("failed to close redis client", zap.Error(err))
			}
		}()
	}

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	journalRepo := persistence.NewGormJournalRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)

	var periodRepo ledger.PeriodRepository = persistence.NewGormPeriodRepository(db.DB)
	if redisClient != nil {
		periodRepo = cache.NewCachedPeriodRepository(periodRepo, redisClient, cfg.Ledger.PeriodCacheTTL)
		log.Info("period cache enabled", zap.Duration("ttl", cfg.Ledger.PeriodCacheTTL))
	}

	// Initialize application services
	postingService := applicationledger.NewPostingService(accountRepo, periodRepo, journalRepo)

	// Initialize token verification
	tokens := auth.NewTokenService(cfg.JWT)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Build the HTTP engine
	engine := router.Setup(router.Config{
		Logger:    log,
		Tokens:    tokens,
		Directory: companyRepo,
		Registrars: []router.RouteRegistrar{
			handler.NewJournalHandler(postingService),
		},
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in a goroutine so shutdown signals can be handled
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-platform/internal/audit"
	"marketplace-platform/internal/auth"
	"marketplace-platform/internal/buyers"
	"marketplace-platform/internal/catalog"
	"marketplace-platform/internal/checkout"
	"marketplace-platform/internal/config"
	"marketplace-platform/internal/discounts"
	"marketplace-platform/internal/escrow"
	"marketplace-platform/internal/httpapi"
	"marketplace-platform/internal/inventory"
	"marketplace-platform/internal/ledger"
	"marketplace-platform/internal/limiter"
	"marketplace-platform/internal/notify"
	"marketplace-platform/internal/orders"
	"marketplace-platform/internal/refunds"
	"marketplace-platform/internal/reporting"
	"marketplace-platform/pkg/logger"
	"marketplace-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// .env is a local convenience; deployed processes get real env vars
	_ = godotenv.Load()

	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	var sink notify.Sink = notify.Noop{}
	var kafkaSink *notify.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink = notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		kafkaSink.Start(rootCtx)
		sink = notify.DedupSink{
			Next:  kafkaSink,
			Marks: &limiter.RedisDeduplicator{RDB: rdb},
			TTL:   time.Minute,
			Log:   log,
		}
		log.Info("kafka sink enabled", "topic", cfg.Kafka.Topic)
	} else {
		log.Warn("kafka not configured, notification events are dropped")
	}

	listings := &catalog.PostgresRepo{DB: db}
	profile := &buyers.PostgresRepo{DB: db}
	orderRepo := &orders.PostgresRepo{DB: db}
	ledgerRepo := &ledger.PostgresRepo{DB: db}
	holdStore := &escrow.PostgresStore{DB: db}

	inv := inventory.NewService(&inventory.PostgresStore{DB: db})
	h := httpapi.Handlers{
		Auth:      authManager,
		Checkout:  checkout.NewService(&checkout.PostgresStore{DB: db}, listings, profile, inv, sink, log),
		Orders:    orders.NewService(orderRepo, inv),
		Escrow:    escrow.NewService(holdStore, orderRepo),
		Refunds:   refunds.NewService(&refunds.PostgresStore{DB: db}, orderRepo, holdStore, ledgerRepo, sink),
		Ledger:    ledger.NewService(ledgerRepo),
		Reports:   reporting.NewService(&reporting.PostgresRepo{Ledger: ledgerRepo, Holds: holdStore}),
		Discounts: discounts.NewService(&discounts.PostgresRepo{DB: db}),
		Audit:     audit.NewService(&audit.PostgresRepo{DB: db}),
		Limiter:   &limiter.RedisLimiter{RDB: rdb},
		Gate:      &limiter.RedisGate{RDB: rdb, Limit: 1, TTL: 30 * time.Second},
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, auth.RequireAccessToken(authManager), h)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	if kafkaSink != nil {
		kafkaSink.WaitClosed()
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

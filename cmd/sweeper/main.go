package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-platform/internal/audit"
	"marketplace-platform/internal/config"
	"marketplace-platform/internal/escrow"
	"marketplace-platform/internal/inventory"
	"marketplace-platform/internal/orders"
	"marketplace-platform/internal/rbac"
	"marketplace-platform/pkg/logger"
	"marketplace-platform/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// The sweeper owns the two time-driven transitions: expired stock
// reservations are released back to their listings, and escrow holds past the
// release window are paid out. Both sweeps are idempotent, so overlapping
// instances are safe.

const (
	sweepInterval = time.Minute
	sweepBatch    = 200
)

func main() {
	_ = godotenv.Load()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	orderRepo := &orders.PostgresRepo{DB: db}
	inv := inventory.NewService(&inventory.PostgresStore{DB: db})
	escrowSvc := escrow.NewService(&escrow.PostgresStore{DB: db}, orderRepo)
	auditSvc := audit.NewService(&audit.PostgresRepo{DB: db})

	// no user stands behind the sweeper; it acts with admin authority
	actor := rbac.Actor{UserID: "sweeper", Role: rbac.RoleAdmin}

	log.Info("sweeper started", "interval", sweepInterval.String())
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		runSweep(rootCtx, log, inv, escrowSvc, auditSvc, actor)
		select {
		case <-rootCtx.Done():
			log.Info("sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func runSweep(ctx context.Context, log *slog.Logger, inv *inventory.Service, escrowSvc *escrow.Service, auditSvc *audit.Service, actor rbac.Actor) {
	expired, err := inv.SweepExpired(ctx, sweepBatch)
	if err != nil {
		log.Error("reservation sweep failed", "err", err)
	}

	released, err := escrowSvc.SweepAutoRelease(ctx, actor, sweepBatch)
	if err != nil {
		log.Error("escrow sweep failed", "err", err)
	}

	if expired == 0 && released == 0 {
		return
	}
	log.Info("sweep run", "reservations_released", expired, "holds_released", released)

	meta := fmt.Sprintf(`{"reservations_released":%d,"holds_released":%d}`, expired, released)
	if err := auditSvc.LogSweep(ctx, "scheduled sweep", meta); err != nil {
		log.Error("sweep audit failed", "err", err)
	}
}

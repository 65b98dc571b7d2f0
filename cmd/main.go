// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kaizenhq/event-ledger/internal/audit"
	"github.com/kaizenhq/event-ledger/internal/config"
	"github.com/kaizenhq/event-ledger/internal/database"
	"github.com/kaizenhq/event-ledger/internal/handler"
	"github.com/kaizenhq/event-ledger/internal/ledger"
	"github.com/kaizenhq/event-ledger/internal/logger"
	"github.com/kaizenhq/event-ledger/internal/notify"
	"github.com/kaizenhq/event-ledger/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(logger.Config(cfg.Log))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// ── 1. Connect to PostgreSQL and open the ledger store ────────────────
	pool, err := database.NewPool(ctx, cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	st, err := store.NewPG(ctx, pool)
	if err != nil {
		zlog.Fatal("store", zap.Error(err))
	}
	zlog.Info("connected to postgres")

	// ── 2. Wire up the ledgers ────────────────────────────────────────────
	gate := handler.HeaderGate{}
	clock := ledger.SystemClock{}
	pub := notify.NewLogPublisher(zlog)
	defer pub.Close()

	events := ledger.NewEventLedger(st, gate, clock, pub, zlog)
	collectibles := ledger.NewCollectibleRegistry(st, gate, clock, pub, zlog)
	rewards := ledger.NewRewardLedger(st, gate, pub, zlog)

	if err := bootstrap(ctx, cfg.Bootstrap, collectibles, rewards, zlog); err != nil {
		zlog.Fatal("bootstrap", zap.Error(err))
	}

	// ── 3. Start the conservation auditor ─────────────────────────────────
	auditor, err := audit.New(st, cfg.Audit.Interval, zlog)
	if err != nil {
		zlog.Fatal("auditor", zap.Error(err))
	}
	if err := auditor.Start(); err != nil {
		zlog.Fatal("auditor", zap.Error(err))
	}
	defer auditor.Stop()

	// ── 4. Build the router and serve ─────────────────────────────────────
	router := handler.NewRouter(zlog,
		handler.NewEventHandler(events),
		handler.NewCollectibleHandler(collectibles),
		handler.NewRewardHandler(rewards),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		zlog.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("graceful shutdown failed", zap.Error(err))
	}
	zlog.Info("server stopped")
}

// bootstrap seeds the collectible registry and reward ledger on first start.
// Re-running against an already-initialized store is a logged no-op.
func bootstrap(ctx context.Context, cfg config.BootstrapConfig, collectibles *ledger.CollectibleRegistry, rewards *ledger.RewardLedger, zlog *zap.Logger) error {
	if cfg.Admin == "" {
		zlog.Info("no bootstrap admin configured, skipping init")
		return nil
	}

	if err := collectibles.Init(ctx, cfg.Admin); err != nil {
		if !errors.Is(err, ledger.ErrAlreadyInitialized) {
			return fmt.Errorf("init collectible registry: %w", err)
		}
		zlog.Info("collectible registry already initialized")
	}

	err := rewards.Init(ctx, cfg.Admin, cfg.TokenName, cfg.TokenSymbol, cfg.TokenDecimals, cfg.TokenSupply)
	if err != nil {
		if !errors.Is(err, ledger.ErrAlreadyInitialized) {
			return fmt.Errorf("init reward ledger: %w", err)
		}
		zlog.Info("reward ledger already initialized")
	}
	return nil
}

// Package main is the entry point for the faktura due-watch worker.
// It periodically reports recurring templates that are due so operators
// can review and trigger generation. It never generates documents itself.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"faktura/internal/core/clock"
	"faktura/internal/domain/billing"
	"faktura/internal/infrastructure/storage/postgres"
	"faktura/internal/infrastructure/storage/postgres/audit_repo"
	"faktura/internal/infrastructure/storage/postgres/document_repo"
	"faktura/pkg/logger"
	"faktura/pkg/numerator"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting faktura due-watch worker")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatalw("DATABASE_URL is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	docRepo := document_repo.NewDocumentRepo(txm)
	recorder, err := audit_repo.NewAuditRepo(txm)
	if err != nil {
		log.Fatalw("failed to initialize audit repo", "error", err)
	}

	clk := clock.System{}
	billingService := billing.NewService(docRepo, recorder, numerator.New(pool.Pool), clk)

	interval := getEnvDuration("DUE_CHECK_INTERVAL", 5*time.Minute)
	watcher := NewDueWatcher(billingService, clk, interval, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		watcher.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// DueWatcher polls for due recurring templates and reports them.
type DueWatcher struct {
	billing  *billing.Service
	clock    clock.Clock
	interval time.Duration
	log      *logger.Logger
}

// NewDueWatcher creates a watcher with the given poll interval.
func NewDueWatcher(billingSvc *billing.Service, clk clock.Clock, interval time.Duration, log *logger.Logger) *DueWatcher {
	return &DueWatcher{
		billing:  billingSvc,
		clock:    clk,
		interval: interval,
		log:      log.WithComponent("due-watcher"),
	}
}

// Run polls until the context is cancelled.
func (w *DueWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check counts due templates across tenants. Generation stays a manual,
// operator-reviewed step; the worker only surfaces what is waiting.
func (w *DueWatcher) check(ctx context.Context) {
	now := w.clock.Now()
	due, err := w.billing.ListDueTemplates(ctx, now)
	if err != nil {
		w.log.Errorw("due template check failed", "error", err)
		return
	}

	if len(due) == 0 {
		w.log.Debugw("no due templates", "checked_at", now)
		return
	}

	byTenant := make(map[string]int)
	for _, doc := range due {
		byTenant[doc.TenantID]++
	}

	w.log.Infow("due templates waiting",
		"total", len(due),
		"tenants", len(byTenant),
		"checked_at", now,
	)
	for tenantID, count := range byTenant {
		w.log.Infow("tenant has due templates", "tenant_id", tenantID, "count", count)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

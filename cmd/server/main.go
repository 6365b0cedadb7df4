// Package main is the entry point for the faktura API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"faktura/internal/core/clock"
	"faktura/internal/domain/audit"
	"faktura/internal/domain/auth"
	"faktura/internal/domain/billing"
	"faktura/internal/domain/generation"
	v1 "faktura/internal/infrastructure/http/v1"
	"faktura/internal/infrastructure/storage/memory"
	"faktura/internal/infrastructure/storage/postgres"
	"faktura/internal/infrastructure/storage/postgres/audit_repo"
	"faktura/internal/infrastructure/storage/postgres/document_repo"
	"faktura/pkg/logger"
	"faktura/pkg/numerator"
)

func main() {
	// .env is optional; real deployments set environment directly
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting faktura server")

	var (
		pool         *postgres.Pool
		docRepo      billing.Repository
		recorder     audit.Recorder
		numeratorSvc numerator.Generator
	)

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pool, err = postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()

		txm := postgres.NewTxManager(pool)
		docRepo = document_repo.NewDocumentRepo(txm)

		auditRepo, err := audit_repo.NewAuditRepo(txm)
		if err != nil {
			log.Fatalw("failed to initialize audit repo", "error", err)
		}
		recorder = auditRepo
		numeratorSvc = numerator.New(pool.Pool)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		store := memory.NewStore()
		docRepo = store
		recorder = store
		numeratorSvc = numerator.NewMemory()
	}

	clk := clock.System{}

	billingService := billing.NewService(docRepo, recorder, numeratorSvc, clk)
	generationService := generation.NewService(docRepo, recorder, numeratorSvc, clk)

	// --- JWT validation ---
	jwtSecret := getEnv("JWT_SECRET", "dev-secret-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:              pool,
		Logger:            log,
		TokenValidator:    jwtService,
		BillingService:    billingService,
		GenerationService: generationService,
		AuditRecorder:     recorder,
		Clock:             clk,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

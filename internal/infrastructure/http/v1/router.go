// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"faktura/internal/core/clock"
	"faktura/internal/domain/audit"
	"faktura/internal/domain/billing"
	"faktura/internal/domain/generation"
	"faktura/internal/infrastructure/http/v1/handlers"
	"faktura/internal/infrastructure/http/v1/middleware"
	"faktura/internal/infrastructure/storage/postgres"
	"faktura/pkg/logger"
)

// RouterConfig holds the wired services the API exposes.
type RouterConfig struct {
	// Pool is the database pool, nil when running on the memory store.
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// TokenValidator for bearer token validation
	TokenValidator middleware.TokenValidator

	// BillingService drives document operations
	BillingService *billing.Service

	// GenerationService drives template generation
	GenerationService *generation.Service

	// AuditRecorder serves the audit read side
	AuditRecorder audit.Recorder

	// Clock for due-template queries
	Clock clock.Clock
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()
	documentHandler := handlers.NewDocumentHandler(baseHandler, cfg.BillingService)
	recurringHandler := handlers.NewRecurringHandler(baseHandler, cfg.BillingService, cfg.GenerationService, cfg.Clock)
	auditHandler := handlers.NewAuditHandler(baseHandler, cfg.AuditRecorder)
	balanceHandler := handlers.NewBalanceHandler(baseHandler, cfg.BillingService)

	// API v1 - everything behind auth
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.Auth(cfg.TokenValidator))
	{
		docs := apiV1.Group("/documents")
		{
			docs.POST("", documentHandler.Create)
			docs.GET("", documentHandler.List)
			docs.GET("/by-number/:number", documentHandler.GetByNumber)
			docs.GET("/:id", documentHandler.Get)
			docs.PUT("/:id", documentHandler.Update)
			docs.POST("/:id/payments", documentHandler.RecordPayment)
			docs.POST("/:id/cancel", documentHandler.Cancel)

			docs.PUT("/:id/recurrence", recurringHandler.SetRecurrence)
			docs.POST("/:id/recurrence/toggle", recurringHandler.ToggleActive)
			docs.DELETE("/:id/recurrence", recurringHandler.RemoveRecurrence)
		}

		recurring := apiV1.Group("/recurring")
		{
			recurring.GET("/due", recurringHandler.ListDue)
			recurring.POST("/generate", recurringHandler.Generate)
			recurring.POST("/:id/generate", recurringHandler.GenerateOne)
		}

		apiV1.GET("/balance", balanceHandler.Outstanding)
		apiV1.GET("/customers/:customerId/balance", balanceHandler.CustomerBalance)

		apiV1.GET("/audit", auditHandler.Query)
	}

	return router
}

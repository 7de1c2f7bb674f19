package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/baggs431/shopify-variant-tagger/internal/api/handlers"
	"github.com/baggs431/shopify-variant-tagger/internal/api/middleware"
	"github.com/baggs431/shopify-variant-tagger/internal/config"
	"github.com/baggs431/shopify-variant-tagger/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, reconciler *service.Reconciler, queue *service.PendingQueue, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	// Root: friendly response so GET / returns 200 instead of 404
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Variant Tagger",
			"endpoints": []string{
				"GET /health",
				"POST /webhooks/shopify/products",
				"POST /v1/reconcile",
				"GET /v1/variants/:id/label",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Shopify webhook: product updates feed the reconciliation queue
	router.POST("/webhooks/shopify/products", handlers.HandleProductWebhook(cfg, queue, logger))

	// API v1 routes (admin authenticated)
	v1 := router.Group("/v1")
	v1.Use(middleware.AdminAuthMiddleware(cfg, logger))
	{
		v1.POST("/reconcile", handlers.HandleReconcile(reconciler, logger))
		v1.GET("/variants/:id/label", handlers.HandleGetVariantLabel(reconciler, logger))
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}

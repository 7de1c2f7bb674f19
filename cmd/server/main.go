package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/baggs431/shopify-variant-tagger/internal/api"
	"github.com/baggs431/shopify-variant-tagger/internal/config"
	"github.com/baggs431/shopify-variant-tagger/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	logger.Info("Starting variant tagger",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)

	// Wire the pipeline
	catalog := service.NewCatalogService(cfg.Shopify, cfg.Metafields, logger)
	cooldown := service.NewMemoryCooldown(cfg.Sync.CooldownWindow)
	reconciler := service.NewReconciler(catalog, cooldown, cfg.Sync, logger)
	queue := service.NewPendingQueue()

	// Initialize router
	router := api.NewRouter(cfg, reconciler, queue, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Background work: queue consumer plus one-shot webhook registration
	workCtx, stopWork := context.WithCancel(context.Background())
	defer stopWork()
	go reconciler.RunQueueConsumer(workCtx, queue)
	go func() {
		if err := service.EnsureSubscription(workCtx, catalog, cfg.Shopify.CallbackURL, logger); err != nil {
			logger.Error("Failed to reconcile webhook subscription", zap.Error(err))
		}
	}()

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopWork()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

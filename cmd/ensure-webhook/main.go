package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/baggs431/shopify-variant-tagger/internal/config"
	"github.com/baggs431/shopify-variant-tagger/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Shopify.CallbackURL == "" {
		fmt.Fprintln(os.Stderr, "WEBHOOK_CALLBACK_URL is required")
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	catalog := service.NewCatalogService(cfg.Shopify, cfg.Metafields, logger)
	if err := service.EnsureSubscription(context.Background(), catalog, cfg.Shopify.CallbackURL, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to reconcile webhook subscription: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Webhook subscription is in place.")
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
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

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	catalog := service.NewCatalogService(cfg.Shopify, cfg.Metafields, logger)
	cooldown := service.NewMemoryCooldown(cfg.Sync.CooldownWindow)
	reconciler := service.NewReconciler(catalog, cooldown, cfg.Sync, logger)

	runID := uuid.NewString()
	fmt.Printf("Running full catalog sync (run %s)...\n", runID)

	summary := reconciler.FullSync(context.Background(), runID)

	fmt.Printf("Processed: %d\n", summary.Processed)
	fmt.Printf("Written:   %d\n", summary.Written)
	fmt.Printf("Skipped:   %d\n", summary.Skipped)
	fmt.Printf("Failed:    %d\n", summary.Failed)
	if !summary.Complete {
		fmt.Println("WARNING: enumeration stopped early, run is incomplete")
		os.Exit(1)
	}
}

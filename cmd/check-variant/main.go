package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/baggs431/shopify-variant-tagger/internal/config"
	"github.com/baggs431/shopify-variant-tagger/internal/domain"
	"github.com/baggs431/shopify-variant-tagger/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: check-variant <variant-id>")
		os.Exit(1)
	}
	id := strings.TrimSpace(os.Args[1])
	if !strings.HasPrefix(id, "gid://") {
		id = fmt.Sprintf("gid://shopify/ProductVariant/%s", id)
	}

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

	snap, target, err := reconciler.Preview(context.Background(), id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read variant: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Variant:          %s\n", snap.ID)
	fmt.Printf("Created:          %s\n", snap.CreatedAt)
	fmt.Printf("Product created:  %s\n", snap.ParentCreatedAt)
	fmt.Printf("Price:            %.2f\n", snap.Price)
	fmt.Printf("Compare-at price: %.2f\n", snap.CompareAtPrice)
	fmt.Printf("Best seller:      %v\n", snap.RecentBestSeller)
	fmt.Printf("Current label:    %q\n", snap.CurrentLabel)
	fmt.Printf("Computed label:   %s\n", target)
	if domain.ShouldWrite(snap.CurrentLabel, target) {
		fmt.Println("A reconcile run would write this label.")
	} else {
		fmt.Println("A reconcile run would skip the write.")
	}
}

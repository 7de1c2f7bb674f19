package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Shopify     ShopifyConfig
	Metafields  MetafieldConfig
	Sync        SyncConfig
	API         APIConfig
}

type ShopifyConfig struct {
	ShopDomain    string
	AccessToken   string
	APIVersion    string
	WebhookSecret string // SHOPIFY_WEBHOOK_SECRET: verify incoming webhooks (X-Shopify-Hmac-Sha256)
	CallbackURL   string // public URL Shopify delivers product webhooks to
}

// MetafieldConfig names where the label lives and where the best-seller
// signal is read from. The two are in different namespaces on purpose:
// the signal is owned by an external app, the label by this service.
type MetafieldConfig struct {
	LabelNamespace      string
	LabelKey            string
	BestSellerNamespace string
	BestSellerKey       string
}

// SyncConfig holds the pipeline tunables. Batch size and interval trade
// throughput against Shopify rate-limit risk, so they are explicit
// configuration rather than constants.
type SyncConfig struct {
	CooldownWindow time.Duration // suppression window after a variant is admitted
	BatchSize      int           // max ids drained from the queue per tick
	BatchInterval  time.Duration // queue consumer tick
	Throttle       time.Duration // blocking pause after each processed variant
	PageSize       int           // bulk enumeration page size
	RetryAttempts  int           // attempts per transient-failing call
	RetryDelay     time.Duration // fixed delay between attempts
}

type APIConfig struct {
	AdminKeyHash string // bcrypt hash of the admin bearer key; empty disables admin routes
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SHOPIFY_API_VERSION", "2026-01")
	viper.SetDefault("LABEL_NAMESPACE", "custom")
	viper.SetDefault("LABEL_KEY", "badge")
	viper.SetDefault("BEST_SELLER_NAMESPACE", "bestsellers")
	viper.SetDefault("BEST_SELLER_KEY", "recent")
	viper.SetDefault("COOLDOWN_SECONDS", 30)
	viper.SetDefault("SYNC_BATCH_SIZE", 25)
	viper.SetDefault("SYNC_BATCH_INTERVAL_SECONDS", 15)
	viper.SetDefault("SYNC_THROTTLE_MILLIS", 1000)
	viper.SetDefault("SYNC_PAGE_SIZE", 100)
	viper.SetDefault("SYNC_RETRY_ATTEMPTS", 3)
	viper.SetDefault("SYNC_RETRY_DELAY_SECONDS", 2)

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Shopify: ShopifyConfig{
			ShopDomain:    strings.TrimSpace(getEnvOrViper("SHOPIFY_SHOP_DOMAIN", "")),
			AccessToken:   strings.TrimSpace(getEnvOrViper("SHOPIFY_ACCESS_TOKEN", "")),
			APIVersion:    getEnvOrViper("SHOPIFY_API_VERSION", "2026-01"),
			WebhookSecret: strings.TrimSpace(getEnvOrViper("SHOPIFY_WEBHOOK_SECRET", "")),
			CallbackURL:   strings.TrimSpace(getEnvOrViper("WEBHOOK_CALLBACK_URL", "")),
		},
		Metafields: MetafieldConfig{
			LabelNamespace:      getEnvOrViper("LABEL_NAMESPACE", "custom"),
			LabelKey:            getEnvOrViper("LABEL_KEY", "badge"),
			BestSellerNamespace: getEnvOrViper("BEST_SELLER_NAMESPACE", "bestsellers"),
			BestSellerKey:       getEnvOrViper("BEST_SELLER_KEY", "recent"),
		},
		Sync: SyncConfig{
			CooldownWindow: time.Duration(viper.GetInt("COOLDOWN_SECONDS")) * time.Second,
			BatchSize:      viper.GetInt("SYNC_BATCH_SIZE"),
			BatchInterval:  time.Duration(viper.GetInt("SYNC_BATCH_INTERVAL_SECONDS")) * time.Second,
			Throttle:       time.Duration(viper.GetInt("SYNC_THROTTLE_MILLIS")) * time.Millisecond,
			PageSize:       viper.GetInt("SYNC_PAGE_SIZE"),
			RetryAttempts:  viper.GetInt("SYNC_RETRY_ATTEMPTS"),
			RetryDelay:     time.Duration(viper.GetInt("SYNC_RETRY_DELAY_SECONDS")) * time.Second,
		},
		API: APIConfig{
			AdminKeyHash: strings.TrimSpace(getEnvOrViper("ADMIN_API_KEY_HASH", "")),
		},
	}

	// Validate required fields
	if cfg.Shopify.ShopDomain == "" {
		return nil, fmt.Errorf("SHOPIFY_SHOP_DOMAIN is required")
	}
	if cfg.Shopify.AccessToken == "" {
		return nil, fmt.Errorf("SHOPIFY_ACCESS_TOKEN is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

// Package config provides configuration management for the modelhub CLI.
//
// This file handles loading configuration from environment variables and .env
// files, and creating the marketplace client and quota store it describes.
package config

import (
	"context"
	"os"

	modelhub "modelhub-sdk"
	"modelhub-sdk/quota"

	"github.com/joho/godotenv"
)

// Config is the resolved CLI configuration
type Config struct {
	APIKey  string
	BaseURL string
	// Origin resolves relative endpoint paths; defaults to the base URL's origin
	Origin      string
	QuotaDriver string
	QuotaDSN    string
	// CatalogDir, when set, replaces the marketplace with local descriptors
	CatalogDir string
}

// Load reads .env and the MODELHUB_* environment variables
func Load() Config {
	// Load .env file
	godotenv.Load()

	return Config{
		APIKey:      os.Getenv("MODELHUB_API_KEY"),
		BaseURL:     getEnv("MODELHUB_BASE_URL", modelhub.DefaultBaseURL),
		Origin:      os.Getenv("MODELHUB_ORIGIN"),
		QuotaDriver: getEnv("MODELHUB_QUOTA_DRIVER", "file"),
		QuotaDSN:    os.Getenv("MODELHUB_QUOTA_DSN"),
		CatalogDir:  os.Getenv("MODELHUB_CATALOG_DIR"),
	}
}

// NewClient creates a marketplace client for cfg
func (c Config) NewClient() *modelhub.Client {
	var opts []modelhub.ClientOption
	if c.BaseURL != "" {
		opts = append(opts, modelhub.WithBaseURL(c.BaseURL))
	}
	return modelhub.NewClient(c.APIKey, opts...)
}

// OpenQuota opens the configured quota store
func (c Config) OpenQuota(ctx context.Context) (quota.Store, error) {
	return quota.Open(ctx, quota.Config{Driver: c.QuotaDriver, DSN: c.QuotaDSN})
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

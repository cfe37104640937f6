// Package config loads SDK settings from the environment, optionally
// seeded from a TOML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DatabaseURL string // PASDK_DATABASE_URL (required)
	ProjectID   string // PASDK_PROJECT_ID (required)
	NATSURL     string // PASDK_NATS_URL (optional, empty = no events)

	// Schema cache settings
	CacheTTL      time.Duration // PASDK_CACHE_TTL (default 5m)
	CacheDisabled bool          // PASDK_CACHE_DISABLED (default false)

	// Attachment storage settings
	S3Bucket   string // PASDK_S3_BUCKET (enables S3 when set)
	S3Region   string // PASDK_S3_REGION (default "us-east-1")
	S3Endpoint string // PASDK_S3_ENDPOINT (custom endpoint for MinIO)
}

// fileConfig is the TOML shape of a config file. Durations are strings
// in Go duration syntax.
type fileConfig struct {
	DatabaseURL   string `toml:"database_url"`
	ProjectID     string `toml:"project_id"`
	NATSURL       string `toml:"nats_url"`
	CacheTTL      string `toml:"cache_ttl"`
	CacheDisabled bool   `toml:"cache_disabled"`
	S3Bucket      string `toml:"s3_bucket"`
	S3Region      string `toml:"s3_region"`
	S3Endpoint    string `toml:"s3_endpoint"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	return finish(&Config{})
}

// LoadFile reads a TOML config file and applies environment overrides
// on top of it.
func LoadFile(path string) (*Config, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	c := &Config{
		DatabaseURL:   fc.DatabaseURL,
		ProjectID:     fc.ProjectID,
		NATSURL:       fc.NATSURL,
		CacheDisabled: fc.CacheDisabled,
		S3Bucket:      fc.S3Bucket,
		S3Region:      fc.S3Region,
		S3Endpoint:    fc.S3Endpoint,
	}
	if fc.CacheTTL != "" {
		d, err := time.ParseDuration(fc.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("cache_ttl in %s: %w", path, err)
		}
		c.CacheTTL = d
	}
	return finish(c)
}

func finish(c *Config) (*Config, error) {
	c.DatabaseURL = envOrDefault("PASDK_DATABASE_URL", c.DatabaseURL)
	c.ProjectID = envOrDefault("PASDK_PROJECT_ID", c.ProjectID)
	c.NATSURL = envOrDefault("PASDK_NATS_URL", c.NATSURL)
	c.S3Bucket = envOrDefault("PASDK_S3_BUCKET", c.S3Bucket)
	c.S3Endpoint = envOrDefault("PASDK_S3_ENDPOINT", c.S3Endpoint)
	c.S3Region = envOrDefault("PASDK_S3_REGION", c.S3Region)
	if c.S3Region == "" {
		c.S3Region = "us-east-1"
	}

	if v := os.Getenv("PASDK_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PASDK_CACHE_TTL: %w", err)
		}
		c.CacheTTL = d
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}

	if v := os.Getenv("PASDK_CACHE_DISABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("PASDK_CACHE_DISABLED: %w", err)
		}
		c.CacheDisabled = b
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("PASDK_DATABASE_URL is required")
	}
	if c.ProjectID == "" {
		return nil, fmt.Errorf("PASDK_PROJECT_ID is required")
	}
	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

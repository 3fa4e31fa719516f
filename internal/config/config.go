// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// DBPath is the SQLite database file. When empty the service runs
	// without a durable backend and analytics events live only in the
	// in-memory fallback ring.
	DBPath     string `env:"IBEDES_DB_PATH" envDefault:"./data/ibedes.db"`
	ServerHost string `env:"IBEDES_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"IBEDES_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"IBEDES_ENV" envDefault:"development"`
	LogLevel   string `env:"IBEDES_LOG_LEVEL" envDefault:"info"`

	// AdminToken protects the /api/v1/admin routes. Admin endpoints are
	// disabled entirely when it is unset.
	AdminToken string `env:"IBEDES_ADMIN_TOKEN"`

	// Cache configuration
	RedisURL     string `env:"IBEDES_REDIS_URL"`                         // Optional Redis URL for the response cache
	CachePrefix  string `env:"IBEDES_CACHE_PREFIX" envDefault:"ibedes:"` // Redis key prefix
	CacheMaxSize int    `env:"IBEDES_CACHE_MAX_SIZE" envDefault:"1000"`  // Max memory cache entries

	// CORSOrigin is the Access-Control-Allow-Origin value for the public
	// collect endpoint. The collector is meant to be embedded on any page,
	// so the default is permissive.
	CORSOrigin string `env:"IBEDES_CORS_ORIGIN" envDefault:"*"`

	// Analytics configuration
	RetentionDays    int    `env:"IBEDES_RETENTION_DAYS" envDefault:"365"`  // Event retention window
	CollectRPS       int    `env:"IBEDES_COLLECT_RPS" envDefault:"20"`      // Per-IP ingest rate limit
	GeoIPDBPath      string `env:"IBEDES_GEOIP_DB_PATH"`                    // Path to GeoLite2-Country.mmdb
	FallbackLimit    int    `env:"IBEDES_FALLBACK_LIMIT" envDefault:"2000"` // In-memory event ring cap
	DisableRetention bool   `env:"IBEDES_DISABLE_RETENTION" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// HasDurableStore returns true if a SQLite database path is configured.
func (c Config) HasDurableStore() bool {
	return c.DBPath != ""
}

// GeoIPEnabled returns true if a GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// AdminEnabled returns true if the admin API is reachable.
func (c Config) AdminEnabled() bool {
	return c.AdminToken != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.RetentionDays < 1 {
		return nil, fmt.Errorf("IBEDES_RETENTION_DAYS must be at least 1, got %d", cfg.RetentionDays)
	}
	if cfg.FallbackLimit < 1 {
		return nil, fmt.Errorf("IBEDES_FALLBACK_LIMIT must be at least 1, got %d", cfg.FallbackLimit)
	}

	return cfg, nil
}

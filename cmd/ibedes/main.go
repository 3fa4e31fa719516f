// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command ibedes runs the blog analytics and affiliate marketplace API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Ibedes/ibedes/internal/analytics"
	"github.com/Ibedes/ibedes/internal/cache"
	"github.com/Ibedes/ibedes/internal/config"
	"github.com/Ibedes/ibedes/internal/geoip"
	"github.com/Ibedes/ibedes/internal/handler/api"
	"github.com/Ibedes/ibedes/internal/logging"
	"github.com/Ibedes/ibedes/internal/notify"
	"github.com/Ibedes/ibedes/internal/store"
	"github.com/Ibedes/ibedes/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Ibedes - blog analytics and affiliate marketplace API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBEDES_DB_PATH         SQLite database path (default: ./data/ibedes.db, empty = memory-only)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBEDES_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBEDES_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBEDES_ADMIN_TOKEN     Bearer token for /api/v1/admin (unset = admin disabled)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBEDES_CORS_ORIGIN     Allow-Origin for the collect endpoint (default: *)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBEDES_REDIS_URL       Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBEDES_GEOIP_DB_PATH   GeoLite2-Country.mmdb path (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  IBEDES_RETENTION_DAYS  Event retention window (default: 365)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
		_, _ = fmt.Printf("ibedes %s\n", info)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Initialize the durable store when configured. Without it the service
	// still runs: events live in the in-memory fallback ring and the
	// content and notification endpoints answer 503.
	var db *sql.DB
	var queries *store.Queries
	if cfg.HasDurableStore() {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		slog.Info("initializing database", "path", cfg.DBPath)
		db, err = store.NewDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		defer func(db *sql.DB) {
			if err := db.Close(); err != nil {
				slog.Error("error closing database connection", "error", err)
			}
		}(db)

		slog.Info("running database migrations")
		if err := store.Migrate(db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database ready")

		queries = store.New(db)

		// Upgrade logger to also write WARN and ERROR logs to the system
		// log table
		textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
		logger = slog.New(logging.NewSystemLogHandler(textHandler, db))
		slog.SetDefault(logger)
		slog.Info("system log integration enabled", "min_level", "warn")
	} else {
		slog.Warn("no database path configured, running memory-only",
			"fallback_limit", cfg.FallbackLimit)
	}

	// Response cache: Redis when configured, in-memory otherwise
	cacheConfig := cache.DefaultConfig()
	cacheConfig.RedisURL = cfg.RedisURL
	cacheConfig.Prefix = cfg.CachePrefix
	cacheConfig.MaxSize = cfg.CacheMaxSize
	appCache, err := cache.NewCache(cacheConfig)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := appCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	slog.Info("cache initialized", "redis", cfg.UseRedisCache())

	// GeoIP country enrichment, optional
	geo := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip initialization failed, events will carry no country",
				"path", cfg.GeoIPDBPath, "error", err)
		} else {
			slog.Info("geoip database loaded", "path", cfg.GeoIPDBPath)
			defer func() {
				if err := geo.Close(); err != nil {
					slog.Error("error closing geoip database", "error", err)
				}
			}()
		}
	}

	// Analytics pipeline
	events := analytics.NewStore(analytics.StoreOptions{
		Queries:       queries,
		FallbackLimit: cfg.FallbackLimit,
		Logger:        logger,
	})
	defer func() {
		if err := events.Close(); err != nil {
			slog.Error("error closing event store", "error", err)
		}
	}()

	var notifySvc *notify.Service
	var notifier analytics.Notifier
	if queries != nil {
		notifySvc = notify.NewService(queries, logger)
		notifier = notifySvc
	}

	// Skip the lookup entirely when no database ended up loaded.
	var collectorGeo *geoip.Lookup
	if geo.IsEnabled() {
		collectorGeo = geo
	}

	collector := analytics.NewCollector(analytics.CollectorOptions{
		Store:    events,
		Geo:      collectorGeo,
		Notifier: notifier,
		Logger:   logger,
	})
	aggregator := analytics.NewAggregator(events)

	var retention *analytics.Retention
	if queries != nil && !cfg.DisableRetention {
		retention = analytics.NewRetention(queries, cfg.RetentionDays, logger)
		retention.Start()
		defer retention.Stop()
		slog.Info("retention job scheduled", "days", cfg.RetentionDays)
	}

	// HTTP surface
	apiHandler := api.NewHandler(api.Options{
		Queries:    queries,
		Collector:  collector,
		Aggregator: aggregator,
		Events:     events,
		Retention:  retention,
		Notify:     notifySvc,
		Cache:      appCache,
		Logger:     logger,
		Version:    versionInfo,
	})
	router := api.NewRouter(apiHandler, api.RouterConfig{
		AdminToken: cfg.AdminToken,
		CORSOrigin: cfg.CORSOrigin,
		CollectRPS: cfg.CollectRPS,
	})
	if !cfg.AdminEnabled() {
		slog.Warn("IBEDES_ADMIN_TOKEN is unset, admin API is disabled")
	}

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "durable", events.Durable())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// Package main is the entry point for the taxotree classification server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxotree/internal/browse"
	"taxotree/internal/cache"
	"taxotree/internal/config"
	"taxotree/internal/database"
	"taxotree/internal/editor"
	"taxotree/internal/handlers"
	"taxotree/internal/manager"
	"taxotree/internal/middleware"
	"taxotree/internal/router"
	"taxotree/internal/store"
	"taxotree/internal/tree"
)

func main() {
	// Structured logger — outputs text with debug level for now.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (browse-session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Bounded node caches for classifications and categories.
	nodeCache, err := cache.NewNodeCache(cfg.ClassificationCacheSize, cfg.CategoryCacheSize)
	if err != nil {
		slog.Error("failed to initialize node cache", "error", err)
		os.Exit(1)
	}

	// The classification engine: store -> manager -> editor. All
	// explicitly constructed; lifecycle is owned here, not by globals.
	categoryStore := store.NewCategoryStore(db)
	mgr := manager.New(categoryStore, nodeCache)
	treeEditor := editor.New(mgr, cfg.ClassificationIDPrefix)

	// Node arena: lazily loaded tree nodes backing the browse traversal.
	// Edits invalidate it per classification.
	arena := tree.NewArena(mgr)

	// Browse sessions live in Valkey with automatic expiry.
	sessionStore := browse.NewSessionStore(valkeyClient, browse.DefaultTTL)

	// Create handler groups with their dependencies.
	taxonomyHandlers := handlers.NewTaxonomy(mgr, treeEditor, arena)
	browseHandlers := handlers.NewBrowse(mgr, arena, sessionStore)

	// Rate limiter for the mutating tree-edit endpoints.
	limiter := middleware.NewRateLimiter(60, time.Minute)
	defer limiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(taxonomyHandlers, browseHandlers, limiter)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

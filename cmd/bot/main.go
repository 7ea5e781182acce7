// Command bot is the Dora walk tracker service: the Telegram bot,
// the overdue-walk reminder loops, and the read-only stats API in
// one process.
//
// Usage:
//
//	dora-bot
//	API_PORT=8080 dora-bot
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/marinarosell/dora-bot/internal/alert"
	"github.com/marinarosell/dora-bot/internal/api"
	"github.com/marinarosell/dora-bot/internal/bot"
	"github.com/marinarosell/dora-bot/internal/cache"
	"github.com/marinarosell/dora-bot/internal/config"
	"github.com/marinarosell/dora-bot/internal/db"
	"github.com/marinarosell/dora-bot/internal/grouplock"
	"github.com/marinarosell/dora-bot/internal/metrics"
	"github.com/marinarosell/dora-bot/internal/scheduler"
	"github.com/marinarosell/dora-bot/internal/store"
	"github.com/marinarosell/dora-bot/internal/telegram"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database and apply migrations
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	if err := db.Migrate(ctx, pool, logger); err != nil {
		logger.Error("Failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// Shared state
	metrics.Init()
	st := store.NewPostgres(pool.Pool, logger)
	locks := grouplock.New()
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Telegram bot and reminder loops (only with a token)
	client := telegram.NewClient(cfg.TelegramToken)
	if client.IsConfigured() {
		engine := alert.NewEngine(st, client, locks, cfg, logger)
		b := bot.New(client, st, locks, cfg, logger)
		go b.Run(ctx)
		go scheduler.Start(ctx, engine, cfg, logger)
		logger.Info("Telegram bot started",
			"max_hours", cfg.MaxHours,
			"quiet_start", cfg.QuietStart.String(),
			"quiet_end", cfg.QuietEnd.String())
	} else {
		logger.Info("Telegram bot disabled (no TELEGRAM_TOKEN)")
	}

	// Create router
	router := api.NewRouter(st, pool, appCache, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Dora walk tracker API",
			"addr", addr,
			"environment", cfg.Environment,
			"timezone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

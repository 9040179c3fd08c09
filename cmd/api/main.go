// Command api is the Matchday API server.
//
// Usage:
//
//	matchday-api
//	API_PORT=8080 matchday-api
//	DEMO_MODE=true matchday-api

// @title Matchday API
// @version 1.0.0
// @description Football match tracking, bookmaker odds aggregation, and prediction settlement. Standings, best odds, and user performance are derived state, recomputed from facts on demand.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @license.name MIT
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

	"github.com/matchdaylabs/matchday/internal/api"
	"github.com/matchdaylabs/matchday/internal/api/handler"
	"github.com/matchdaylabs/matchday/internal/cache"
	"github.com/matchdaylabs/matchday/internal/config"
	"github.com/matchdaylabs/matchday/internal/db"
	"github.com/matchdaylabs/matchday/internal/fixture"
	"github.com/matchdaylabs/matchday/internal/listener"
	"github.com/matchdaylabs/matchday/internal/maintenance"
	"github.com/matchdaylabs/matchday/internal/odds"
	"github.com/matchdaylabs/matchday/internal/report"
	"github.com/matchdaylabs/matchday/internal/seed"
	"github.com/matchdaylabs/matchday/internal/settlement"
	"github.com/matchdaylabs/matchday/internal/standings"
	"github.com/matchdaylabs/matchday/internal/store"
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

	// Pick the fact store: Postgres normally, in-memory in demo mode.
	var (
		facts store.Store
		pool  *db.Pool
	)
	if cfg.DemoMode {
		logger.Info("Demo mode: using in-memory store")
		facts = store.NewMemory()
	} else {
		logger.Info("Connecting to database...")
		pool, err = db.New(ctx, cfg)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
		facts = store.NewPostgres(pool)
	}

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Derived-state engines over the fact store
	standingsEngine := standings.NewEngine(facts, logger)
	settlementEngine := settlement.NewEngine(facts, logger)
	processor := fixture.NewProcessor(facts, standingsEngine, settlementEngine, logger)

	if cfg.DemoMode {
		result := seed.Demo(ctx, facts, processor, logger)
		for _, e := range result.Errors {
			logger.Warn("demo seed error", "error", e)
		}
	}

	if pool != nil {
		// Start LISTEN/NOTIFY consumer for match finality events
		go listener.Start(ctx, cfg.DatabaseURL, processor, logger)
	}

	// Start maintenance tickers (catch-up sweep)
	go maintenance.Start(ctx, processor, maintenance.Config{
		SweepInterval: cfg.SweepInterval,
		SweepWorkers:  cfg.SweepWorkers,
		SweepMax:      cfg.SweepMax,
	}, logger)

	// Create router
	router := api.NewRouter(handler.Deps{
		Store:      facts,
		Pool:       pool,
		Cache:      appCache,
		Config:     cfg,
		Standings:  standingsEngine,
		Settlement: settlementEngine,
		Odds:       odds.NewAggregator(facts),
		Report:     report.New(facts),
		Fixtures:   processor,
		Logger:     logger,
	}, cfg)

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
		logger.Info("Starting Matchday API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
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

// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/api and cmd/admin.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names — single source of truth, matches migrations/schema.sql
// --------------------------------------------------------------------------

const (
	LeaguesTable     = "leagues"
	TeamsTable       = "teams"
	MatchesTable     = "matches"
	TeamStatsTable   = "team_stats"
	OddsTable        = "odds"
	UsersTable       = "users"
	PredictionsTable = "predictions"
	ResultsTable     = "prediction_results"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// DemoMode runs the API against the in-memory store with a seeded
	// sample dataset; no Postgres required.
	DemoMode bool

	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Background processing
	SweepInterval time.Duration // periodic repair of rollups/settlements; 0 disables
	SweepWorkers  int
	SweepMax      int

	// Cache
	CacheEnabled bool
	OddsCacheTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	demo := envBool("DEMO_MODE", false)
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" && !demo {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	return &Config{
		DemoMode:       demo,
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		SweepInterval: time.Duration(envInt("SWEEP_INTERVAL_MINUTES", 15)) * time.Minute,
		SweepWorkers:  envInt("SWEEP_WORKERS", 2),
		SweepMax:      envInt("SWEEP_MAX_MATCHES", 200),

		CacheEnabled: envBool("CACHE_ENABLED", true),
		OddsCacheTTL: time.Duration(envInt("ODDS_CACHE_TTL_SECONDS", 30)) * time.Second,
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// Package handler provides HTTP handlers for all API endpoints. Handlers
// call the fact store and the derived-state engines directly — no service
// layer in between.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matchdaylabs/matchday/internal/api/respond"
	"github.com/matchdaylabs/matchday/internal/cache"
	"github.com/matchdaylabs/matchday/internal/config"
	"github.com/matchdaylabs/matchday/internal/db"
	"github.com/matchdaylabs/matchday/internal/fixture"
	"github.com/matchdaylabs/matchday/internal/odds"
	"github.com/matchdaylabs/matchday/internal/report"
	"github.com/matchdaylabs/matchday/internal/settlement"
	"github.com/matchdaylabs/matchday/internal/standings"
	"github.com/matchdaylabs/matchday/internal/store"
)

const maxBodyBytes = 1 << 20

// Deps bundles everything the endpoint handlers need.
type Deps struct {
	Store      store.Store
	Pool       *db.Pool // nil in demo mode (in-memory store)
	Cache      *cache.Cache
	Config     *config.Config
	Standings  *standings.Engine
	Settlement *settlement.Engine
	Odds       *odds.Aggregator
	Report     *report.Reporter
	Fixtures   *fixture.Processor
	Logger     *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store      store.Store
	pool       *db.Pool
	cache      *cache.Cache
	cfg        *config.Config
	standings  *standings.Engine
	settlement *settlement.Engine
	odds       *odds.Aggregator
	report     *report.Reporter
	fixtures   *fixture.Processor
	logger     *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	return &Handler{
		store:      d.Store,
		pool:       d.Pool,
		cache:      d.Cache,
		cfg:        d.Config,
		standings:  d.Standings,
		settlement: d.Settlement,
		odds:       d.Odds,
		report:     d.Report,
		fixtures:   d.Fixtures,
		logger:     d.Logger,
	}
}

// idParam parses a chi URL parameter as an int64 ID.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields
// and oversized payloads.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// A body with trailing garbage after the object is malformed.
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func badBody(w http.ResponseWriter, err error) {
	if errors.Is(err, io.EOF) {
		respond.WriteError(w, http.StatusBadRequest, "EMPTY_BODY", "request body is required")
		return
	}
	respond.WriteErrorDetail(w, http.StatusBadRequest, "BAD_JSON", "malformed request body", err.Error())
}

// Root serves API info at /.
// @Summary API root info
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Matchday API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"database":  "in-memory",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/matchdaylabs/matchday/internal/api/handler"
	"github.com/matchdaylabs/matchday/internal/cache"
	"github.com/matchdaylabs/matchday/internal/config"
	"github.com/matchdaylabs/matchday/internal/fixture"
	"github.com/matchdaylabs/matchday/internal/odds"
	"github.com/matchdaylabs/matchday/internal/report"
	"github.com/matchdaylabs/matchday/internal/settlement"
	"github.com/matchdaylabs/matchday/internal/standings"
	"github.com/matchdaylabs/matchday/internal/store"
)

func testRouter(t *testing.T) (*chi.Mux, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	standingsEngine := standings.NewEngine(mem, logger)
	settlementEngine := settlement.NewEngine(mem, logger)

	cfg := &config.Config{
		CORSAllowOrigins: []string{"*"},
		RateLimitEnabled: false,
		CacheEnabled:     true,
	}
	deps := handler.Deps{
		Store:      mem,
		Cache:      cache.New(true),
		Config:     cfg,
		Standings:  standingsEngine,
		Settlement: settlementEngine,
		Odds:       odds.NewAggregator(mem),
		Report:     report.New(mem),
		Fixtures:   fixture.NewProcessor(mem, standingsEngine, settlementEngine, logger),
		Logger:     logger,
	}
	return NewRouter(deps, cfg), mem
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func mustID(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int) int64 {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("status = %d, want %d: %s", rec.Code, wantStatus, rec.Body.String())
	}
	id, ok := decode(t, rec)["id"].(float64)
	if !ok {
		t.Fatalf("response has no numeric id: %s", rec.Body.String())
	}
	return int64(id)
}

func TestMatchLifecycleOverHTTP(t *testing.T) {
	router, _ := testRouter(t)

	leagueID := mustID(t, do(t, router, "POST", "/api/v1/leagues", map[string]any{
		"name": "Premier League", "country": "England", "season": "2023-24",
	}), http.StatusCreated)

	teamPath := fmt.Sprintf("/api/v1/leagues/%d/teams", leagueID)
	homeID := mustID(t, do(t, router, "POST", teamPath, map[string]any{"name": "Arsenal"}), http.StatusCreated)
	awayID := mustID(t, do(t, router, "POST", teamPath, map[string]any{"name": "Chelsea"}), http.StatusCreated)

	matchID := mustID(t, do(t, router, "POST", "/api/v1/matches", map[string]any{
		"league_id":    leagueID,
		"home_team_id": homeID,
		"away_team_id": awayID,
		"match_date":   time.Now().UTC().Format(time.RFC3339),
	}), http.StatusCreated)

	userID := mustID(t, do(t, router, "POST", "/api/v1/users", map[string]any{
		"username": "alice",
	}), http.StatusCreated)

	predictionID := mustID(t, do(t, router, "POST", "/api/v1/predictions", map[string]any{
		"user_id":           userID,
		"match_id":          matchID,
		"predicted_outcome": "home_win",
		"confidence":        0.7,
		"stake":             "10.00",
		"odds_used":         "2.50",
	}), http.StatusCreated)

	// Settling before the final whistle must refuse without writing.
	rec := do(t, router, "POST", fmt.Sprintf("/api/v1/predictions/%d/settle", predictionID), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("early settle status = %d, want 409: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, "PATCH", fmt.Sprintf("/api/v1/matches/%d/result", matchID), map[string]any{
		"status": "finished", "home_goals": 2, "away_goals": 1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("result update status = %d: %s", rec.Code, rec.Body.String())
	}

	// The result event settled the prediction.
	rec = do(t, router, "GET", fmt.Sprintf("/api/v1/predictions/%d", predictionID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get prediction status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	result, ok := body["result"].(map[string]any)
	if !ok {
		t.Fatalf("prediction has no settlement: %s", rec.Body.String())
	}
	if result["is_correct"] != true {
		t.Errorf("is_correct = %v, want true", result["is_correct"])
	}
	pl, ok := result["profit_loss"].(string)
	if !ok {
		t.Fatalf("profit_loss missing: %v", result)
	}
	if !decimal.RequireFromString(pl).Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("profit_loss = %s, want 15.00", pl)
	}

	// Predicting on a finished match is rejected.
	rec = do(t, router, "POST", "/api/v1/predictions", map[string]any{
		"user_id":           userID,
		"match_id":          matchID,
		"predicted_outcome": "draw",
		"confidence":        0.5,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("late prediction status = %d, want 409: %s", rec.Code, rec.Body.String())
	}

	// Standings reflect the result.
	rec = do(t, router, "GET", fmt.Sprintf("/api/v1/leagues/%d/standings", leagueID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("standings status = %d: %s", rec.Code, rec.Body.String())
	}

	// User stats cover the settled wager.
	rec = do(t, router, "GET", fmt.Sprintf("/api/v1/predictions/user/%d/stats", userID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("user stats status = %d: %s", rec.Code, rec.Body.String())
	}
	stats := decode(t, rec)
	if stats["settled_predictions"] != float64(1) || stats["correct_predictions"] != float64(1) {
		t.Errorf("stats = %v, want 1 settled / 1 correct", stats)
	}
}

func TestBestOddsETagFlow(t *testing.T) {
	router, _ := testRouter(t)

	leagueID := mustID(t, do(t, router, "POST", "/api/v1/leagues", map[string]any{
		"name": "L", "season": "2023-24",
	}), http.StatusCreated)
	teamPath := fmt.Sprintf("/api/v1/leagues/%d/teams", leagueID)
	homeID := mustID(t, do(t, router, "POST", teamPath, map[string]any{"name": "A"}), http.StatusCreated)
	awayID := mustID(t, do(t, router, "POST", teamPath, map[string]any{"name": "B"}), http.StatusCreated)
	matchID := mustID(t, do(t, router, "POST", "/api/v1/matches", map[string]any{
		"league_id": leagueID, "home_team_id": homeID, "away_team_id": awayID,
		"match_date": time.Now().UTC().Format(time.RFC3339),
	}), http.StatusCreated)

	rec := do(t, router, "POST", "/api/v1/odds", map[string]any{
		"match_id":      matchID,
		"bookmaker":     "bet365",
		"home_win_odds": "2.10",
		"draw_odds":     "3.40",
		"away_win_odds": "3.50",
		"retrieved_at":  time.Now().UTC().Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest status = %d: %s", rec.Code, rec.Body.String())
	}

	path := fmt.Sprintf("/api/v1/odds/match/%d/best", matchID)
	first := do(t, router, "GET", path, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("best odds status = %d: %s", first.Code, first.Body.String())
	}
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("no ETag on best odds response")
	}

	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("If-None-Match", etag)
	second := httptest.NewRecorder()
	router.ServeHTTP(second, req)
	if second.Code != http.StatusNotModified {
		t.Errorf("conditional request status = %d, want 304", second.Code)
	}

	best := decode(t, first)
	if best["has_data"] != true {
		t.Errorf("has_data = %v, want true", best["has_data"])
	}
}

func TestNotFoundMapping(t *testing.T) {
	router, _ := testRouter(t)

	for _, path := range []string{
		"/api/v1/leagues/999",
		"/api/v1/teams/999",
		"/api/v1/matches/999",
		"/api/v1/users/999",
		"/api/v1/predictions/999",
	} {
		rec := do(t, router, "GET", path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := testRouter(t)

	for _, path := range []string{"/health", "/health/db", "/health/cache"} {
		rec := do(t, router, "GET", path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}

	rec := do(t, router, "GET", "/health/db", nil)
	if got := decode(t, rec)["database"]; got != "in-memory" {
		t.Errorf("database = %v, want in-memory without a pool", got)
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest("POST", "/api/v1/leagues", bytes.NewReader([]byte(`{"name": `)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("truncated JSON status = %d, want 400", rec.Code)
	}

	rec = do(t, router, "POST", "/api/v1/leagues", map[string]any{
		"name": "L", "season": "2023-24", "unknown_field": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", rec.Code)
	}
}

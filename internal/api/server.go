package api

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/matchdaylabs/matchday/internal/api/handler"
	"github.com/matchdaylabs/matchday/internal/config"
)

//go:embed openapi.json
var openapiSpec []byte

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(deps handler.Deps, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "Link", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(deps)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Swagger UI over the embedded OpenAPI document.
	r.Get("/docs/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(openapiSpec)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Leagues and teams
		r.Route("/leagues", func(r chi.Router) {
			r.Get("/", h.ListLeagues)
			r.Post("/", h.CreateLeague)
			r.Get("/{id}", h.GetLeague)
			r.Delete("/{id}", h.DeleteLeague)
			r.Get("/{id}/teams", h.LeagueTeams)
			r.Post("/{id}/teams", h.CreateTeam)
			r.Get("/{id}/standings", h.LeagueStandings)
		})
		r.Get("/teams/{id}", h.GetTeam)
		r.Get("/teams/{id}/stats", h.TeamStats)

		// Matches
		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.ListMatches)
			r.Post("/", h.CreateMatch)
			r.Get("/{id}", h.GetMatch)
			r.Patch("/{id}/result", h.UpdateMatchResult)
			r.Delete("/{id}", h.DeleteMatch)
		})

		// Odds
		r.Route("/odds", func(r chi.Router) {
			r.Post("/", h.IngestOdds)
			r.Get("/bookmakers", h.Bookmakers)
			r.Get("/match/{id}", h.MatchOdds)
			r.Get("/match/{id}/best", h.BestOdds)
			r.Get("/match/{id}/latest", h.LatestOdds)
			r.Get("/match/{id}/comparison", h.OddsComparison)
		})

		// Users and predictions
		r.Post("/users", h.CreateUser)
		r.Get("/users/{id}", h.GetUser)
		r.Route("/predictions", func(r chi.Router) {
			r.Post("/", h.CreatePrediction)
			r.Get("/{id}", h.GetPrediction)
			r.Post("/{id}/settle", h.SettlePrediction)
			r.Get("/{id}/history", h.PredictionHistory)
			r.Get("/user/{id}", h.UserPredictions)
			r.Get("/user/{id}/stats", h.UserStats)
		})

		// Model metrics
		r.Get("/models/metrics", h.ModelMetrics)
	})

	return r
}

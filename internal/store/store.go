// Package store is the fact store surface: append/append-correct relational
// records for leagues, teams, matches, odds quotes, predictions, and
// settlement records. Two implementations exist — Postgres on pgxpool for
// production and an in-memory store for tests and demo mode. The derived-
// state engines only ever see this interface.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/matchdaylabs/matchday/internal/domain"
)

// MatchFilter narrows ListMatches. Nil fields match everything.
type MatchFilter struct {
	LeagueID *int64
	TeamID   *int64
	Status   *domain.MatchStatus
	Limit    int
	Offset   int
}

// Store is the transactional surface over the fact records. Create methods
// assign IDs on the passed entity. All methods return domain.ErrNotFound
// (possibly wrapped) for missing referents.
type Store interface {
	// Leagues own teams and matches; DeleteLeague cascades through the
	// whole ownership tree.
	CreateLeague(ctx context.Context, l *domain.League) error
	GetLeague(ctx context.Context, id int64) (*domain.League, error)
	ListLeagues(ctx context.Context) ([]domain.League, error)
	DeleteLeague(ctx context.Context, id int64) error

	CreateTeam(ctx context.Context, t *domain.Team) error
	GetTeam(ctx context.Context, id int64) (*domain.Team, error)
	TeamsByLeague(ctx context.Context, leagueID int64) ([]domain.Team, error)

	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)

	CreateMatch(ctx context.Context, m *domain.Match) error
	GetMatch(ctx context.Context, id int64) (*domain.Match, error)
	ListMatches(ctx context.Context, f MatchFilter) ([]domain.Match, error)
	// FinishedMatchesByTeam returns finished matches the team played in the
	// given season (the season tag of the match's league), ordered by
	// kickoff time. This is the input set of the standings fold.
	FinishedMatchesByTeam(ctx context.Context, teamID int64, season string) ([]domain.Match, error)
	UpdateMatch(ctx context.Context, m *domain.Match) error
	// DeleteMatch removes the match and its owned odds, predictions, and
	// settlement records.
	DeleteMatch(ctx context.Context, id int64) error

	// Odds rows are append-only; there is no update or single-row delete.
	InsertOdds(ctx context.Context, o *domain.Odds) error
	OddsByMatch(ctx context.Context, matchID int64) ([]domain.Odds, error)
	Bookmakers(ctx context.Context) ([]string, error)

	CreatePrediction(ctx context.Context, p *domain.Prediction) error
	GetPrediction(ctx context.Context, id int64) (*domain.Prediction, error)
	PredictionsByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Prediction, error)
	PredictionsByMatch(ctx context.Context, matchID int64) ([]domain.Prediction, error)

	// CurrentResult returns the non-superseded settlement for a prediction,
	// or ErrNotFound when the prediction is unsettled.
	CurrentResult(ctx context.Context, predictionID int64) (*domain.PredictionResult, error)
	InsertResult(ctx context.Context, r *domain.PredictionResult) error
	// SupersedeResult stamps old with the ID of its replacement. The old
	// row is preserved for the audit trail.
	SupersedeResult(ctx context.Context, old uuid.UUID, by uuid.UUID) error
	// ResultsByUser returns current (non-superseded) settlements for all of
	// the user's predictions.
	ResultsByUser(ctx context.Context, userID int64) ([]domain.PredictionResult, error)
	// ResultHistory returns every settlement ever recorded for the
	// prediction, oldest first, superseded rows included.
	ResultHistory(ctx context.Context, predictionID int64) ([]domain.PredictionResult, error)

	UpsertTeamStats(ctx context.Context, s *domain.TeamStats) error
	TeamStats(ctx context.Context, teamID int64, season string) (*domain.TeamStats, error)

	ListModelMetrics(ctx context.Context, limit int) ([]domain.ModelMetrics, error)
}

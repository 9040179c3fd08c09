package standings

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/matchdaylabs/matchday/internal/domain"
	"github.com/matchdaylabs/matchday/internal/keylock"
	"github.com/matchdaylabs/matchday/internal/store"
)

// Engine runs rollup recomputation against the fact store. Writers on the
// same (team, season) key are serialized; unrelated keys proceed in
// parallel, so batch repair jobs and event-driven recomputes can share it.
type Engine struct {
	store  store.Store
	locks  *keylock.KeyLock
	logger *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(s store.Store, logger *slog.Logger) *Engine {
	return &Engine{store: s, locks: keylock.New(), logger: logger}
}

func rollupKey(teamID int64, season string) string {
	return fmt.Sprintf("rollup:%d:%s", teamID, season)
}

// Recompute folds the team's finished matches for the season and persists
// the result. Calling it any number of times with no intervening data
// change yields the identical record. Cost is bounded by the team's own
// match count.
func (e *Engine) Recompute(ctx context.Context, teamID int64, season string) (*domain.TeamStats, error) {
	if _, err := e.store.GetTeam(ctx, teamID); err != nil {
		return nil, fmt.Errorf("recompute: %w", err)
	}

	key := rollupKey(teamID, season)
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	matches, err := e.store.FinishedMatchesByTeam(ctx, teamID, season)
	if err != nil {
		return nil, fmt.Errorf("recompute team %d season %s: %w", teamID, season, err)
	}

	res := Fold(teamID, season, matches)
	for _, id := range res.Excluded {
		e.logger.Warn("Finished match excluded from rollup: goal counts missing",
			"match_id", id, "team_id", teamID, "season", season)
	}

	if err := e.store.UpsertTeamStats(ctx, &res.Stats); err != nil {
		return nil, fmt.Errorf("persist rollup team %d season %s: %w", teamID, season, err)
	}
	return &res.Stats, nil
}

// RecomputeMatch refreshes both teams touched by a match, typically after a
// status transition into finished, a score correction, or a deletion.
func (e *Engine) RecomputeMatch(ctx context.Context, m *domain.Match) error {
	league, err := e.store.GetLeague(ctx, m.LeagueID)
	if err != nil {
		return fmt.Errorf("recompute match %d: %w", m.ID, err)
	}
	for _, teamID := range []int64{m.HomeTeamID, m.AwayTeamID} {
		if _, err := e.Recompute(ctx, teamID, league.Season); err != nil {
			return fmt.Errorf("recompute match %d: %w", m.ID, err)
		}
	}
	return nil
}

// TableRow is one line of a league table.
type TableRow struct {
	Position int              `json:"position"`
	TeamID   int64            `json:"team_id"`
	TeamName string           `json:"team_name"`
	Stats    domain.TeamStats `json:"stats"`
}

// Table recomputes every team of the league and returns the sorted table:
// points, then goal difference, then goals scored, then name.
func (e *Engine) Table(ctx context.Context, leagueID int64) ([]TableRow, error) {
	league, err := e.store.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("standings table: %w", err)
	}
	teams, err := e.store.TeamsByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("standings table: %w", err)
	}

	rows := make([]TableRow, 0, len(teams))
	for i := range teams {
		stats, err := e.Recompute(ctx, teams[i].ID, league.Season)
		if err != nil {
			return nil, err
		}
		rows = append(rows, TableRow{
			TeamID:   teams[i].ID,
			TeamName: teams[i].Name,
			Stats:    *stats,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := &rows[i].Stats, &rows[j].Stats
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return rows[i].TeamName < rows[j].TeamName
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows, nil
}

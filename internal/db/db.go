// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchdaylabs/matchday/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers the statements the API and the
// derived-state engines use on the hot path. Prepared statements eliminate
// parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Leagues
		"league_by_id": `SELECT id, name, country, season, league_type, external_id, created_at, updated_at
			FROM leagues WHERE id = $1`,
		"leagues_all": `SELECT id, name, country, season, league_type, external_id, created_at, updated_at
			FROM leagues ORDER BY id`,

		// Teams
		"team_by_id": `SELECT id, league_id, name, country, founded_year, external_id, created_at, updated_at
			FROM teams WHERE id = $1`,
		"teams_by_league": `SELECT id, league_id, name, country, founded_year, external_id, created_at, updated_at
			FROM teams WHERE league_id = $1 ORDER BY name`,

		// Users
		"user_by_id": "SELECT id, username, created_at FROM users WHERE id = $1",

		// Matches
		"match_by_id": matchSelect + " WHERE m.id = $1",
		// Input set of the standings fold: finished matches the team played
		// in a league carrying the given season tag.
		"finished_matches_by_team": matchSelect + `
			JOIN leagues l ON l.id = m.league_id
			WHERE m.status = 'finished'
			  AND ($1 = m.home_team_id OR $1 = m.away_team_id)
			  AND l.season = $2
			ORDER BY m.match_date`,

		// Odds
		"odds_by_match": `SELECT id, match_id, bookmaker, home_win_odds, draw_odds, away_win_odds,
				over_2_5_odds, under_2_5_odds, retrieved_at, created_at
			FROM odds WHERE match_id = $1 ORDER BY retrieved_at`,
		"bookmakers_distinct": "SELECT DISTINCT bookmaker FROM odds ORDER BY bookmaker",

		// Predictions
		"prediction_by_id": `SELECT id, user_id, match_id, predicted_outcome, confidence, stake, odds_used, notes, created_at
			FROM predictions WHERE id = $1`,
		"predictions_by_match": `SELECT id, user_id, match_id, predicted_outcome, confidence, stake, odds_used, notes, created_at
			FROM predictions WHERE match_id = $1 ORDER BY id`,

		// Settlements
		"current_result": `SELECT id, prediction_id, actual_outcome, is_correct, profit_loss, return_rate,
				revision, superseded_by, evaluated_at
			FROM prediction_results WHERE prediction_id = $1 AND superseded_by IS NULL`,
		"results_by_user": `SELECT r.id, r.prediction_id, r.actual_outcome, r.is_correct, r.profit_loss, r.return_rate,
				r.revision, r.superseded_by, r.evaluated_at
			FROM prediction_results r
			JOIN predictions p ON p.id = r.prediction_id
			WHERE p.user_id = $1 AND r.superseded_by IS NULL
			ORDER BY r.prediction_id`,

		// Team stats
		"team_stats_by_key": `SELECT team_id, season, matches_played, wins, draws, losses, goals_for, goals_against,
				goal_difference, points, avg_possession, avg_shots, avg_shots_on_target, updated_at
			FROM team_stats WHERE team_id = $1 AND season = $2`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}

// matchSelect is the shared column list for match queries.
const matchSelect = `SELECT m.id, m.league_id, m.home_team_id, m.away_team_id, m.match_date, m.status,
	m.home_goals, m.away_goals,
	m.home_shots, m.home_shots_on_target, m.home_possession, m.home_passes, m.home_pass_accuracy,
	m.home_fouls, m.home_yellow_cards, m.home_red_cards,
	m.away_shots, m.away_shots_on_target, m.away_possession, m.away_passes, m.away_pass_accuracy,
	m.away_fouls, m.away_yellow_cards, m.away_red_cards,
	m.external_id, m.created_at, m.updated_at
	FROM matches m`

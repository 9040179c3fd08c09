package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/matchdaylabs/matchday/internal/db"
	"github.com/matchdaylabs/matchday/internal/domain"
)

// Postgres implements Store on a pgxpool connection pool. Read paths use
// prepared statements registered at connect time; writes use inline SQL.
// Cascade deletes are delegated to the schema's ON DELETE CASCADE rules.
type Postgres struct {
	pool *db.Pool
}

// NewPostgres wraps an established pool.
func NewPostgres(pool *db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// --------------------------------------------------------------------------
// Leagues
// --------------------------------------------------------------------------

func (s *Postgres) CreateLeague(ctx context.Context, l *domain.League) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO leagues (name, country, season, league_type, external_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		l.Name, l.Country, l.Season, l.Type, l.ExternalID,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create league: %w", err)
	}
	return nil
}

func (s *Postgres) GetLeague(ctx context.Context, id int64) (*domain.League, error) {
	var l domain.League
	err := s.pool.QueryRow(ctx, "league_by_id", id).Scan(
		&l.ID, &l.Name, &l.Country, &l.Season, &l.Type, &l.ExternalID,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get league %d: %w", id, notFound(err))
	}
	return &l, nil
}

func (s *Postgres) ListLeagues(ctx context.Context) ([]domain.League, error) {
	rows, err := s.pool.Query(ctx, "leagues_all")
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	defer rows.Close()

	var out []domain.League
	for rows.Next() {
		var l domain.League
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Country, &l.Season, &l.Type, &l.ExternalID,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan league: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteLeague(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM leagues WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete league %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --------------------------------------------------------------------------
// Teams
// --------------------------------------------------------------------------

func (s *Postgres) CreateTeam(ctx context.Context, t *domain.Team) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO teams (league_id, name, country, founded_year, external_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		t.LeagueID, t.Name, t.Country, t.FoundedYear, t.ExternalID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (s *Postgres) GetTeam(ctx context.Context, id int64) (*domain.Team, error) {
	var t domain.Team
	err := s.pool.QueryRow(ctx, "team_by_id", id).Scan(
		&t.ID, &t.LeagueID, &t.Name, &t.Country, &t.FoundedYear, &t.ExternalID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get team %d: %w", id, notFound(err))
	}
	return &t, nil
}

func (s *Postgres) TeamsByLeague(ctx context.Context, leagueID int64) ([]domain.Team, error) {
	rows, err := s.pool.Query(ctx, "teams_by_league", leagueID)
	if err != nil {
		return nil, fmt.Errorf("teams by league %d: %w", leagueID, err)
	}
	defer rows.Close()

	var out []domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(
			&t.ID, &t.LeagueID, &t.Name, &t.Country, &t.FoundedYear, &t.ExternalID,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// --------------------------------------------------------------------------
// Users
// --------------------------------------------------------------------------

func (s *Postgres) CreateUser(ctx context.Context, u *domain.User) error {
	err := s.pool.QueryRow(ctx,
		"INSERT INTO users (username) VALUES ($1) RETURNING id, created_at",
		u.Username,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Postgres) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx, "user_by_id", id).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, notFound(err))
	}
	return &u, nil
}

// --------------------------------------------------------------------------
// Matches
// --------------------------------------------------------------------------

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var m domain.Match
	err := row.Scan(
		&m.ID, &m.LeagueID, &m.HomeTeamID, &m.AwayTeamID, &m.KickoffAt, &m.Status,
		&m.HomeGoals, &m.AwayGoals,
		&m.Home.Shots, &m.Home.ShotsOnTarget, &m.Home.Possession, &m.Home.Passes, &m.Home.PassAccuracy,
		&m.Home.Fouls, &m.Home.YellowCards, &m.Home.RedCards,
		&m.Away.Shots, &m.Away.ShotsOnTarget, &m.Away.Possession, &m.Away.Passes, &m.Away.PassAccuracy,
		&m.Away.Fouls, &m.Away.YellowCards, &m.Away.RedCards,
		&m.ExternalID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMatches(rows pgx.Rows) ([]domain.Match, error) {
	defer rows.Close()
	var out []domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateMatch(ctx context.Context, m *domain.Match) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO matches (league_id, home_team_id, away_team_id, match_date, status, external_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		m.LeagueID, m.HomeTeamID, m.AwayTeamID, m.KickoffAt, m.Status, m.ExternalID,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

func (s *Postgres) GetMatch(ctx context.Context, id int64) (*domain.Match, error) {
	m, err := scanMatch(s.pool.QueryRow(ctx, "match_by_id", id))
	if err != nil {
		return nil, fmt.Errorf("get match %d: %w", id, notFound(err))
	}
	return m, nil
}

func (s *Postgres) ListMatches(ctx context.Context, f MatchFilter) ([]domain.Match, error) {
	// Filter combinations vary per request, so this query is built inline
	// rather than prepared.
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.LeagueID != nil {
		where = append(where, "m.league_id = "+arg(*f.LeagueID))
	}
	if f.TeamID != nil {
		p := arg(*f.TeamID)
		where = append(where, fmt.Sprintf("(%s = m.home_team_id OR %s = m.away_team_id)", p, p))
	}
	if f.Status != nil {
		where = append(where, "m.status = "+arg(string(*f.Status)))
	}

	sql := matchColumns + " FROM matches m"
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY m.match_date, m.id"
	if f.Limit > 0 {
		sql += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		sql += " OFFSET " + arg(f.Offset)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return scanMatches(rows)
}

func (s *Postgres) FinishedMatchesByTeam(ctx context.Context, teamID int64, season string) ([]domain.Match, error) {
	rows, err := s.pool.Query(ctx, "finished_matches_by_team", teamID, season)
	if err != nil {
		return nil, fmt.Errorf("finished matches for team %d: %w", teamID, err)
	}
	return scanMatches(rows)
}

func (s *Postgres) UpdateMatch(ctx context.Context, m *domain.Match) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE matches SET
			status = $2, home_goals = $3, away_goals = $4,
			home_shots = $5, home_shots_on_target = $6, home_possession = $7,
			home_passes = $8, home_pass_accuracy = $9, home_fouls = $10,
			home_yellow_cards = $11, home_red_cards = $12,
			away_shots = $13, away_shots_on_target = $14, away_possession = $15,
			away_passes = $16, away_pass_accuracy = $17, away_fouls = $18,
			away_yellow_cards = $19, away_red_cards = $20,
			match_date = $21, updated_at = NOW()
		WHERE id = $1`,
		m.ID, m.Status, m.HomeGoals, m.AwayGoals,
		m.Home.Shots, m.Home.ShotsOnTarget, m.Home.Possession,
		m.Home.Passes, m.Home.PassAccuracy, m.Home.Fouls,
		m.Home.YellowCards, m.Home.RedCards,
		m.Away.Shots, m.Away.ShotsOnTarget, m.Away.Possession,
		m.Away.Passes, m.Away.PassAccuracy, m.Away.Fouls,
		m.Away.YellowCards, m.Away.RedCards,
		m.KickoffAt,
	)
	if err != nil {
		return fmt.Errorf("update match %d: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteMatch(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM matches WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete match %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// matchColumns matches the column order scanMatch expects.
const matchColumns = `SELECT m.id, m.league_id, m.home_team_id, m.away_team_id, m.match_date, m.status,
	m.home_goals, m.away_goals,
	m.home_shots, m.home_shots_on_target, m.home_possession, m.home_passes, m.home_pass_accuracy,
	m.home_fouls, m.home_yellow_cards, m.home_red_cards,
	m.away_shots, m.away_shots_on_target, m.away_possession, m.away_passes, m.away_pass_accuracy,
	m.away_fouls, m.away_yellow_cards, m.away_red_cards,
	m.external_id, m.created_at, m.updated_at`

// --------------------------------------------------------------------------
// Odds
// --------------------------------------------------------------------------

func (s *Postgres) InsertOdds(ctx context.Context, o *domain.Odds) error {
	if o.RetrievedAt.IsZero() {
		o.RetrievedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO odds (match_id, bookmaker, home_win_odds, draw_odds, away_win_odds,
			over_2_5_odds, under_2_5_odds, retrieved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		o.MatchID, o.Bookmaker, o.HomeWin, o.Draw, o.AwayWin,
		o.Over25, o.Under25, o.RetrievedAt,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert odds: %w", err)
	}
	return nil
}

func (s *Postgres) OddsByMatch(ctx context.Context, matchID int64) ([]domain.Odds, error) {
	rows, err := s.pool.Query(ctx, "odds_by_match", matchID)
	if err != nil {
		return nil, fmt.Errorf("odds for match %d: %w", matchID, err)
	}
	defer rows.Close()

	var out []domain.Odds
	for rows.Next() {
		var o domain.Odds
		if err := rows.Scan(
			&o.ID, &o.MatchID, &o.Bookmaker, &o.HomeWin, &o.Draw, &o.AwayWin,
			&o.Over25, &o.Under25, &o.RetrievedAt, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan odds: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Postgres) Bookmakers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "bookmakers_distinct")
	if err != nil {
		return nil, fmt.Errorf("list bookmakers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan bookmaker: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --------------------------------------------------------------------------
// Predictions
// --------------------------------------------------------------------------

func (s *Postgres) CreatePrediction(ctx context.Context, p *domain.Prediction) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO predictions (user_id, match_id, predicted_outcome, confidence, stake, odds_used, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		p.UserID, p.MatchID, p.Outcome, p.Confidence, p.Stake, p.OddsUsed, p.Notes,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create prediction: %w", err)
	}
	return nil
}

func (s *Postgres) GetPrediction(ctx context.Context, id int64) (*domain.Prediction, error) {
	var p domain.Prediction
	err := s.pool.QueryRow(ctx, "prediction_by_id", id).Scan(
		&p.ID, &p.UserID, &p.MatchID, &p.Outcome, &p.Confidence,
		&p.Stake, &p.OddsUsed, &p.Notes, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get prediction %d: %w", id, notFound(err))
	}
	return &p, nil
}

func (s *Postgres) PredictionsByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Prediction, error) {
	sql := `SELECT id, user_id, match_id, predicted_outcome, confidence, stake, odds_used, notes, created_at
		FROM predictions WHERE user_id = $1 ORDER BY id`
	args := []any{userID}
	if limit > 0 {
		args = append(args, limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("predictions for user %d: %w", userID, err)
	}
	return scanPredictions(rows)
}

func (s *Postgres) PredictionsByMatch(ctx context.Context, matchID int64) ([]domain.Prediction, error) {
	rows, err := s.pool.Query(ctx, "predictions_by_match", matchID)
	if err != nil {
		return nil, fmt.Errorf("predictions for match %d: %w", matchID, err)
	}
	return scanPredictions(rows)
}

func scanPredictions(rows pgx.Rows) ([]domain.Prediction, error) {
	defer rows.Close()
	var out []domain.Prediction
	for rows.Next() {
		var p domain.Prediction
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.MatchID, &p.Outcome, &p.Confidence,
			&p.Stake, &p.OddsUsed, &p.Notes, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --------------------------------------------------------------------------
// Settlement records
// --------------------------------------------------------------------------

func scanResult(row pgx.Row) (*domain.PredictionResult, error) {
	var r domain.PredictionResult
	err := row.Scan(
		&r.ID, &r.PredictionID, &r.ActualOutcome, &r.IsCorrect,
		&r.ProfitLoss, &r.ReturnRate, &r.Revision, &r.SupersededBy, &r.EvaluatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Postgres) CurrentResult(ctx context.Context, predictionID int64) (*domain.PredictionResult, error) {
	r, err := scanResult(s.pool.QueryRow(ctx, "current_result", predictionID))
	if err != nil {
		return nil, fmt.Errorf("current result for prediction %d: %w", predictionID, notFound(err))
	}
	return r, nil
}

func (s *Postgres) InsertResult(ctx context.Context, r *domain.PredictionResult) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO prediction_results (id, prediction_id, actual_outcome, is_correct,
			profit_loss, return_rate, revision, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.PredictionID, r.ActualOutcome, r.IsCorrect,
		r.ProfitLoss, r.ReturnRate, r.Revision, r.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *Postgres) SupersedeResult(ctx context.Context, old uuid.UUID, by uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE prediction_results SET superseded_by = $2 WHERE id = $1 AND superseded_by IS NULL",
		old, by,
	)
	if err != nil {
		return fmt.Errorf("supersede result %s: %w", old, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Postgres) ResultsByUser(ctx context.Context, userID int64) ([]domain.PredictionResult, error) {
	rows, err := s.pool.Query(ctx, "results_by_user", userID)
	if err != nil {
		return nil, fmt.Errorf("results for user %d: %w", userID, err)
	}
	return scanResults(rows)
}

func (s *Postgres) ResultHistory(ctx context.Context, predictionID int64) ([]domain.PredictionResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, prediction_id, actual_outcome, is_correct, profit_loss, return_rate,
			revision, superseded_by, evaluated_at
		FROM prediction_results
		WHERE prediction_id = $1
		ORDER BY revision`, predictionID)
	if err != nil {
		return nil, fmt.Errorf("result history for prediction %d: %w", predictionID, err)
	}
	return scanResults(rows)
}

func scanResults(rows pgx.Rows) ([]domain.PredictionResult, error) {
	defer rows.Close()
	var out []domain.PredictionResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// --------------------------------------------------------------------------
// Team stats
// --------------------------------------------------------------------------

func (s *Postgres) UpsertTeamStats(ctx context.Context, st *domain.TeamStats) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO team_stats (team_id, season, matches_played, wins, draws, losses,
			goals_for, goals_against, goal_difference, points,
			avg_possession, avg_shots, avg_shots_on_target, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (team_id, season) DO UPDATE SET
			matches_played = EXCLUDED.matches_played,
			wins = EXCLUDED.wins,
			draws = EXCLUDED.draws,
			losses = EXCLUDED.losses,
			goals_for = EXCLUDED.goals_for,
			goals_against = EXCLUDED.goals_against,
			goal_difference = EXCLUDED.goal_difference,
			points = EXCLUDED.points,
			avg_possession = EXCLUDED.avg_possession,
			avg_shots = EXCLUDED.avg_shots,
			avg_shots_on_target = EXCLUDED.avg_shots_on_target,
			updated_at = NOW()`,
		st.TeamID, st.Season, st.MatchesPlayed, st.Wins, st.Draws, st.Losses,
		st.GoalsFor, st.GoalsAgainst, st.GoalDifference, st.Points,
		st.AvgPossession, st.AvgShots, st.AvgShotsOnTarget,
	)
	if err != nil {
		return fmt.Errorf("upsert team stats %d/%s: %w", st.TeamID, st.Season, err)
	}
	return nil
}

func (s *Postgres) TeamStats(ctx context.Context, teamID int64, season string) (*domain.TeamStats, error) {
	var st domain.TeamStats
	err := s.pool.QueryRow(ctx, "team_stats_by_key", teamID, season).Scan(
		&st.TeamID, &st.Season, &st.MatchesPlayed, &st.Wins, &st.Draws, &st.Losses,
		&st.GoalsFor, &st.GoalsAgainst, &st.GoalDifference, &st.Points,
		&st.AvgPossession, &st.AvgShots, &st.AvgShotsOnTarget, &st.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("team stats %d/%s: %w", teamID, season, notFound(err))
	}
	return &st, nil
}

// --------------------------------------------------------------------------
// Model metrics
// --------------------------------------------------------------------------

func (s *Postgres) ListModelMetrics(ctx context.Context, limit int) ([]domain.ModelMetrics, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, model_version, training_date, accuracy, precision_score, recall_score,
			f1_score, auc_score, samples_used, created_at
		FROM model_metrics
		ORDER BY training_date DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list model metrics: %w", err)
	}
	defer rows.Close()

	var out []domain.ModelMetrics
	for rows.Next() {
		var m domain.ModelMetrics
		if err := rows.Scan(
			&m.ID, &m.ModelVersion, &m.TrainingDate, &m.Accuracy, &m.Precision, &m.Recall,
			&m.F1Score, &m.AUCScore, &m.SamplesUsed, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan model metrics: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

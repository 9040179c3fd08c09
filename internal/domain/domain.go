// Package domain defines the core entities of the match tracking and
// prediction settlement system: leagues, teams, matches, odds quotes,
// predictions, and settlement records. All derived-state engines operate
// on these types; storage backends only move them around.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --------------------------------------------------------------------------
// Enums
// --------------------------------------------------------------------------

// LeagueType classifies a league.
type LeagueType string

const (
	LeagueDomestic      LeagueType = "domestic"
	LeagueInternational LeagueType = "international"
	LeagueCup           LeagueType = "cup"
)

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	StatusScheduled MatchStatus = "scheduled"
	StatusLive      MatchStatus = "live"
	StatusFinished  MatchStatus = "finished"
	StatusPostponed MatchStatus = "postponed"
	StatusCancelled MatchStatus = "cancelled"
)

// Valid reports whether s is one of the known match statuses.
func (s MatchStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusFinished, StatusPostponed, StatusCancelled:
		return true
	}
	return false
}

// Outcome is a three-way match result.
type Outcome string

const (
	OutcomeHomeWin Outcome = "home_win"
	OutcomeDraw    Outcome = "draw"
	OutcomeAwayWin Outcome = "away_win"
)

// Valid reports whether o is one of the three outcomes.
func (o Outcome) Valid() bool {
	return o == OutcomeHomeWin || o == OutcomeDraw || o == OutcomeAwayWin
}

// --------------------------------------------------------------------------
// Entities
// --------------------------------------------------------------------------

// League owns its teams and matches. Deleting a league cascades to both.
type League struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Country    string     `json:"country"`
	Season     string     `json:"season"` // e.g. "2023-24"
	Type       LeagueType `json:"league_type"`
	ExternalID *string    `json:"external_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Team belongs to exactly one league. Season-scoped aggregates live in
// TeamStats, not here.
type Team struct {
	ID          int64     `json:"id"`
	LeagueID    int64     `json:"league_id"`
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	FoundedYear *int      `json:"founded_year,omitempty"`
	ExternalID  *string   `json:"external_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SideStats holds the optional detailed statistics for one side of a match.
// Every field may be absent independently; absent values are excluded from
// rolling averages, never treated as zero.
type SideStats struct {
	Shots         *int     `json:"shots,omitempty"`
	ShotsOnTarget *int     `json:"shots_on_target,omitempty"`
	Possession    *float64 `json:"possession,omitempty"` // percentage
	Passes        *int     `json:"passes,omitempty"`
	PassAccuracy  *float64 `json:"pass_accuracy,omitempty"` // percentage
	Fouls         *int     `json:"fouls,omitempty"`
	YellowCards   *int     `json:"yellow_cards,omitempty"`
	RedCards      *int     `json:"red_cards,omitempty"`
}

// Match references a league and two distinct teams. Goal counts are present
// iff the match is finished (or, transiently, live).
type Match struct {
	ID         int64       `json:"id"`
	LeagueID   int64       `json:"league_id"`
	HomeTeamID int64       `json:"home_team_id"`
	AwayTeamID int64       `json:"away_team_id"`
	KickoffAt  time.Time   `json:"match_date"`
	Status     MatchStatus `json:"status"`
	HomeGoals  *int        `json:"home_goals,omitempty"`
	AwayGoals  *int        `json:"away_goals,omitempty"`
	Home       SideStats   `json:"home_stats"`
	Away       SideStats   `json:"away_stats"`
	ExternalID *string     `json:"external_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// HasGoals reports whether both goal counts are recorded.
func (m *Match) HasGoals() bool {
	return m.HomeGoals != nil && m.AwayGoals != nil
}

// Result derives the three-way outcome of a finished match. It returns an
// IntegrityError when the match is marked finished without both goal counts,
// and ErrNotFinal when the match has not finished (cancelled included).
func (m *Match) Result() (Outcome, error) {
	if m.Status != StatusFinished {
		return "", ErrNotFinal
	}
	if !m.HasGoals() {
		return "", &IntegrityError{
			Entity: "match",
			ID:     m.ID,
			Reason: "finished without goal counts",
		}
	}
	switch {
	case *m.HomeGoals > *m.AwayGoals:
		return OutcomeHomeWin, nil
	case *m.HomeGoals < *m.AwayGoals:
		return OutcomeAwayWin, nil
	default:
		return OutcomeDraw, nil
	}
}

// SideOf reports which side teamID played, or "" when the team did not play.
func (m *Match) SideOf(teamID int64) string {
	switch teamID {
	case m.HomeTeamID:
		return "home"
	case m.AwayTeamID:
		return "away"
	}
	return ""
}

// TeamStats is the per-(team, season) rollup. GoalDifference and Points are
// always functions of the counters and are recomputed on every fold, never
// mutated independently.
type TeamStats struct {
	TeamID           int64     `json:"team_id"`
	Season           string    `json:"season"`
	MatchesPlayed    int       `json:"matches_played"`
	Wins             int       `json:"wins"`
	Draws            int       `json:"draws"`
	Losses           int       `json:"losses"`
	GoalsFor         int       `json:"goals_for"`
	GoalsAgainst     int       `json:"goals_against"`
	GoalDifference   int       `json:"goal_difference"`
	Points           int       `json:"points"`
	AvgPossession    *float64  `json:"avg_possession,omitempty"`
	AvgShots         *float64  `json:"avg_shots,omitempty"`
	AvgShotsOnTarget *float64  `json:"avg_shots_on_target,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Odds is one bookmaker's quote snapshot for one match at one retrieval
// time. Rows are append-only; successive quotes from the same bookmaker are
// separate rows.
type Odds struct {
	ID          int64            `json:"id"`
	MatchID     int64            `json:"match_id"`
	Bookmaker   string           `json:"bookmaker"`
	HomeWin     decimal.Decimal  `json:"home_win_odds"`
	Draw        decimal.Decimal  `json:"draw_odds"`
	AwayWin     decimal.Decimal  `json:"away_win_odds"`
	Over25      *decimal.Decimal `json:"over_2_5_odds,omitempty"`
	Under25     *decimal.Decimal `json:"under_2_5_odds,omitempty"`
	RetrievedAt time.Time        `json:"retrieved_at"`
	CreatedAt   time.Time        `json:"created_at"`
}

// User owns predictions. Authentication is out of scope; the record exists
// for ownership and cascade semantics only.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Prediction is a user's forecast for a match. Stake and OddsUsed are
// optional together-or-not for wagered predictions; a prediction without a
// stake is purely analytical.
type Prediction struct {
	ID         int64            `json:"id"`
	UserID     int64            `json:"user_id"`
	MatchID    int64            `json:"match_id"`
	Outcome    Outcome          `json:"predicted_outcome"`
	Confidence float64          `json:"confidence"` // 0.0 to 1.0
	Stake      *decimal.Decimal `json:"stake,omitempty"`
	OddsUsed   *decimal.Decimal `json:"odds_used,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Wagered reports whether both stake and odds were recorded.
func (p *Prediction) Wagered() bool {
	return p.Stake != nil && p.OddsUsed != nil
}

// PredictionResult is the settlement of one prediction: exactly one current
// record per prediction. A score correction supersedes the current record
// (SupersededBy points at the replacement) rather than mutating it.
type PredictionResult struct {
	ID            uuid.UUID        `json:"id"`
	PredictionID  int64            `json:"prediction_id"`
	ActualOutcome Outcome          `json:"actual_outcome"`
	IsCorrect     bool             `json:"is_correct"`
	ProfitLoss    *decimal.Decimal `json:"profit_loss,omitempty"`
	ReturnRate    *decimal.Decimal `json:"return_rate,omitempty"` // percentage
	Revision      int              `json:"revision"`
	SupersededBy  *uuid.UUID       `json:"superseded_by,omitempty"`
	EvaluatedAt   time.Time        `json:"evaluated_at"`
}

// Superseded reports whether a replacement settlement exists.
func (r *PredictionResult) Superseded() bool { return r.SupersededBy != nil }

// SameVerdict reports whether two settlements agree on everything that
// matters for auditability: outcome, correctness, and money.
func (r *PredictionResult) SameVerdict(other *PredictionResult) bool {
	if r.ActualOutcome != other.ActualOutcome || r.IsCorrect != other.IsCorrect {
		return false
	}
	if !decimalPtrEq(r.ProfitLoss, other.ProfitLoss) {
		return false
	}
	return decimalPtrEq(r.ReturnRate, other.ReturnRate)
}

func decimalPtrEq(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// ModelMetrics records a trained model's offline performance. Read-only for
// this service; written by the training pipeline.
type ModelMetrics struct {
	ID           int64     `json:"id"`
	ModelVersion string    `json:"model_version"`
	TrainingDate time.Time `json:"training_date"`
	Accuracy     float64   `json:"accuracy"`
	Precision    float64   `json:"precision"`
	Recall       float64   `json:"recall"`
	F1Score      float64   `json:"f1_score"`
	AUCScore     *float64  `json:"auc_score,omitempty"`
	SamplesUsed  int       `json:"samples_used"`
	CreatedAt    time.Time `json:"created_at"`
}

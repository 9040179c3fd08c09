package domain

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// ValidateOdds checks a quote before insert. Prices use the decimal-odds
// convention and must exceed 1.0; over/under prices are optional but must
// obey the same bound when present.
func ValidateOdds(o *Odds) error {
	if o.MatchID == 0 {
		return &ValidationError{Field: "match_id", Reason: "required"}
	}
	if o.Bookmaker == "" {
		return &ValidationError{Field: "bookmaker", Reason: "required"}
	}
	if o.RetrievedAt.IsZero() {
		return &ValidationError{Field: "retrieved_at", Reason: "required"}
	}
	for _, p := range []struct {
		name  string
		price decimal.Decimal
	}{
		{"home_win_odds", o.HomeWin},
		{"draw_odds", o.Draw},
		{"away_win_odds", o.AwayWin},
	} {
		if p.price.LessThanOrEqual(one) {
			return &ValidationError{Field: p.name, Reason: "must be greater than 1.0"}
		}
	}
	if o.Over25 != nil && o.Over25.LessThanOrEqual(one) {
		return &ValidationError{Field: "over_2_5_odds", Reason: "must be greater than 1.0"}
	}
	if o.Under25 != nil && o.Under25.LessThanOrEqual(one) {
		return &ValidationError{Field: "under_2_5_odds", Reason: "must be greater than 1.0"}
	}
	return nil
}

// ValidatePrediction checks a prediction at creation time. A zero stake is
// rejected here so settlement never has to divide by it; match finality is
// checked separately by the caller against the current match status.
func ValidatePrediction(p *Prediction) error {
	if p.UserID == 0 {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}
	if p.MatchID == 0 {
		return &ValidationError{Field: "match_id", Reason: "required"}
	}
	if !p.Outcome.Valid() {
		return &ValidationError{Field: "predicted_outcome", Reason: "must be home_win, draw, or away_win"}
	}
	if p.Confidence < 0.0 || p.Confidence > 1.0 {
		return &ValidationError{Field: "confidence", Reason: "must be between 0.0 and 1.0"}
	}
	if p.Stake != nil {
		if p.Stake.IsNegative() {
			return &ValidationError{Field: "stake", Reason: "must not be negative"}
		}
		if p.Stake.IsZero() {
			return &ValidationError{Field: "stake", Reason: "zero stake is not allowed; omit stake instead"}
		}
	}
	if p.OddsUsed != nil && p.OddsUsed.LessThanOrEqual(one) {
		return &ValidationError{Field: "odds_used", Reason: "must be greater than 1.0"}
	}
	return nil
}

// ValidateMatch checks structural match invariants at creation time.
func ValidateMatch(m *Match) error {
	if m.LeagueID == 0 {
		return &ValidationError{Field: "league_id", Reason: "required"}
	}
	if m.HomeTeamID == 0 || m.AwayTeamID == 0 {
		return &ValidationError{Field: "team_id", Reason: "both teams required"}
	}
	if m.HomeTeamID == m.AwayTeamID {
		return &ValidationError{Field: "away_team_id", Reason: "home and away teams must differ"}
	}
	if m.KickoffAt.IsZero() {
		return &ValidationError{Field: "match_date", Reason: "required"}
	}
	if m.Status == "" {
		m.Status = StatusScheduled
	}
	if !m.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status"}
	}
	return nil
}

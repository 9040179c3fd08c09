package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func intPtr(n int) *int { return &n }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestMatchResult(t *testing.T) {
	tests := []struct {
		name       string
		home, away int
		want       Outcome
	}{
		{"home win", 2, 1, OutcomeHomeWin},
		{"draw", 0, 0, OutcomeDraw},
		{"away win", 1, 3, OutcomeAwayWin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Match{
				ID: 1, Status: StatusFinished,
				HomeGoals: intPtr(tt.home), AwayGoals: intPtr(tt.away),
			}
			got, err := m.Result()
			if err != nil {
				t.Fatalf("Result: %v", err)
			}
			if got != tt.want {
				t.Errorf("Result = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMatchResultNotFinal(t *testing.T) {
	for _, status := range []MatchStatus{StatusScheduled, StatusLive, StatusPostponed, StatusCancelled} {
		m := &Match{ID: 1, Status: status, HomeGoals: intPtr(1), AwayGoals: intPtr(0)}
		if _, err := m.Result(); !errors.Is(err, ErrNotFinal) {
			t.Errorf("status %s: err = %v, want ErrNotFinal", status, err)
		}
	}
}

func TestMatchResultMissingGoals(t *testing.T) {
	m := &Match{ID: 7, Status: StatusFinished, HomeGoals: intPtr(1)}
	_, err := m.Result()
	if !IsIntegrity(err) {
		t.Fatalf("err = %v, want IntegrityError", err)
	}
	var ie *IntegrityError
	if !errors.As(err, &ie) || ie.ID != 7 {
		t.Errorf("IntegrityError ID = %v, want 7", err)
	}
}

func TestMatchSideOf(t *testing.T) {
	m := &Match{HomeTeamID: 10, AwayTeamID: 20}
	if got := m.SideOf(10); got != "home" {
		t.Errorf("SideOf(10) = %q, want home", got)
	}
	if got := m.SideOf(20); got != "away" {
		t.Errorf("SideOf(20) = %q, want away", got)
	}
	if got := m.SideOf(30); got != "" {
		t.Errorf("SideOf(30) = %q, want empty", got)
	}
}

func TestPredictionWagered(t *testing.T) {
	p := &Prediction{Outcome: OutcomeDraw}
	if p.Wagered() {
		t.Error("Wagered = true without stake")
	}
	p.Stake = decPtr("10.00")
	if p.Wagered() {
		t.Error("Wagered = true without odds")
	}
	p.OddsUsed = decPtr("2.50")
	if !p.Wagered() {
		t.Error("Wagered = false with stake and odds")
	}
}

func TestValidatePredictionStakeBounds(t *testing.T) {
	base := func() *Prediction {
		return &Prediction{UserID: 1, MatchID: 1, Outcome: OutcomeHomeWin, Confidence: 0.5}
	}

	if err := ValidatePrediction(base()); err != nil {
		t.Errorf("stakeless prediction rejected: %v", err)
	}

	p := base()
	p.Stake = decPtr("0")
	if err := ValidatePrediction(p); !IsValidation(err) {
		t.Errorf("zero stake: err = %v, want ValidationError", err)
	}

	p = base()
	p.Stake = decPtr("-5.00")
	if err := ValidatePrediction(p); !IsValidation(err) {
		t.Errorf("negative stake: err = %v, want ValidationError", err)
	}

	p = base()
	p.Stake = decPtr("10.00")
	p.OddsUsed = decPtr("1.00")
	if err := ValidatePrediction(p); !IsValidation(err) {
		t.Errorf("odds of 1.00: err = %v, want ValidationError", err)
	}

	p = base()
	p.Confidence = 1.5
	if err := ValidatePrediction(p); !IsValidation(err) {
		t.Errorf("confidence 1.5: err = %v, want ValidationError", err)
	}

	p = base()
	p.Outcome = "both_teams_score"
	if err := ValidatePrediction(p); !IsValidation(err) {
		t.Errorf("unknown outcome: err = %v, want ValidationError", err)
	}
}

func TestValidateOdds(t *testing.T) {
	valid := func() *Odds {
		return &Odds{
			MatchID:     1,
			Bookmaker:   "bet365",
			HomeWin:     decimal.RequireFromString("2.10"),
			Draw:        decimal.RequireFromString("3.40"),
			AwayWin:     decimal.RequireFromString("3.50"),
			RetrievedAt: time.Now(),
		}
	}

	if err := ValidateOdds(valid()); err != nil {
		t.Errorf("valid quote rejected: %v", err)
	}

	o := valid()
	o.Bookmaker = ""
	if err := ValidateOdds(o); !IsValidation(err) {
		t.Errorf("missing bookmaker: err = %v", err)
	}

	o = valid()
	o.Draw = decimal.RequireFromString("1.00")
	if err := ValidateOdds(o); !IsValidation(err) {
		t.Errorf("draw price 1.00: err = %v", err)
	}

	o = valid()
	o.Over25 = decPtr("0.95")
	if err := ValidateOdds(o); !IsValidation(err) {
		t.Errorf("over 2.5 price 0.95: err = %v", err)
	}

	o = valid()
	o.RetrievedAt = time.Time{}
	if err := ValidateOdds(o); !IsValidation(err) {
		t.Errorf("zero retrieved_at: err = %v", err)
	}
}

func TestValidateMatch(t *testing.T) {
	m := &Match{LeagueID: 1, HomeTeamID: 10, AwayTeamID: 10, KickoffAt: time.Now()}
	if err := ValidateMatch(m); !IsValidation(err) {
		t.Errorf("same team twice: err = %v", err)
	}

	m = &Match{LeagueID: 1, HomeTeamID: 10, AwayTeamID: 20, KickoffAt: time.Now()}
	if err := ValidateMatch(m); err != nil {
		t.Fatalf("valid match rejected: %v", err)
	}
	if m.Status != StatusScheduled {
		t.Errorf("default status = %s, want scheduled", m.Status)
	}
}

func TestSameVerdict(t *testing.T) {
	pl := decPtr("15.00")
	rate := decPtr("150")
	a := &PredictionResult{
		ID: uuid.New(), PredictionID: 1,
		ActualOutcome: OutcomeHomeWin, IsCorrect: true,
		ProfitLoss: pl, ReturnRate: rate,
	}

	b := &PredictionResult{
		ID: uuid.New(), PredictionID: 1,
		ActualOutcome: OutcomeHomeWin, IsCorrect: true,
		ProfitLoss: decPtr("15.00"), ReturnRate: decPtr("150.00"),
	}
	if !a.SameVerdict(b) {
		t.Error("equal verdicts with distinct decimal representations not matched")
	}

	c := &PredictionResult{
		ID: uuid.New(), PredictionID: 1,
		ActualOutcome: OutcomeAwayWin, IsCorrect: false,
		ProfitLoss: decPtr("-10.00"), ReturnRate: decPtr("-100"),
	}
	if a.SameVerdict(c) {
		t.Error("different outcomes matched")
	}

	// Analytical settlement with null money differs from a wagered one.
	d := &PredictionResult{
		ID: uuid.New(), PredictionID: 1,
		ActualOutcome: OutcomeHomeWin, IsCorrect: true,
	}
	if a.SameVerdict(d) {
		t.Error("null money matched against set money")
	}
	if !d.SameVerdict(&PredictionResult{ActualOutcome: OutcomeHomeWin, IsCorrect: true}) {
		t.Error("two null-money verdicts not matched")
	}
}

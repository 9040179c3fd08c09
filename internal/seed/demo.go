package seed

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matchdaylabs/matchday/internal/domain"
	"github.com/matchdaylabs/matchday/internal/fixture"
	"github.com/matchdaylabs/matchday/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

// Demo seeds the sample dataset and processes the finished matches so the
// standings table and settlements are populated from the start.
func Demo(ctx context.Context, s store.Store, proc *fixture.Processor, logger *slog.Logger) SeedResult {
	var r SeedResult

	league := &domain.League{
		Name:    "Premier League",
		Country: "England",
		Season:  "2023-24",
		Type:    domain.LeagueDomestic,
	}
	if err := s.CreateLeague(ctx, league); err != nil {
		r.AddErrorf("create league: %v", err)
		return r
	}
	r.LeaguesCreated++

	teamNames := []string{"Arsenal", "Chelsea", "Liverpool", "Manchester City"}
	teams := make([]*domain.Team, 0, len(teamNames))
	for _, name := range teamNames {
		t := &domain.Team{LeagueID: league.ID, Name: name, Country: "England"}
		if err := s.CreateTeam(ctx, t); err != nil {
			r.AddErrorf("create team %s: %v", name, err)
			continue
		}
		teams = append(teams, t)
		r.TeamsCreated++
	}
	if len(teams) < 4 {
		return r
	}

	now := time.Now().UTC()

	// A finished round, an upcoming round, and one cancelled fixture.
	finished := []struct {
		home, away           int
		homeGoals, awayGoals int
		homePoss, awayPoss   float64
	}{
		{0, 1, 2, 1, 58.0, 42.0}, // Arsenal 2-1 Chelsea
		{2, 3, 1, 1, 45.0, 55.0}, // Liverpool 1-1 Man City
		{3, 0, 3, 0, 61.5, 38.5}, // Man City 3-0 Arsenal
	}
	matches := make([]*domain.Match, 0, len(finished)+2)
	for i, f := range finished {
		m := &domain.Match{
			LeagueID:   league.ID,
			HomeTeamID: teams[f.home].ID,
			AwayTeamID: teams[f.away].ID,
			KickoffAt:  now.Add(-time.Duration(7*(len(finished)-i)) * 24 * time.Hour),
			Status:     domain.StatusScheduled,
		}
		if err := s.CreateMatch(ctx, m); err != nil {
			r.AddErrorf("create match: %v", err)
			continue
		}
		m.Status = domain.StatusFinished
		m.HomeGoals = intPtr(f.homeGoals)
		m.AwayGoals = intPtr(f.awayGoals)
		m.Home = domain.SideStats{Possession: floatPtr(f.homePoss), Shots: intPtr(10 + f.homeGoals*3)}
		m.Away = domain.SideStats{Possession: floatPtr(f.awayPoss), Shots: intPtr(8 + f.awayGoals*3)}
		if err := s.UpdateMatch(ctx, m); err != nil {
			r.AddErrorf("finish match %d: %v", m.ID, err)
			continue
		}
		matches = append(matches, m)
		r.MatchesCreated++
	}

	upcoming := &domain.Match{
		LeagueID:   league.ID,
		HomeTeamID: teams[1].ID,
		AwayTeamID: teams[2].ID,
		KickoffAt:  now.Add(3 * 24 * time.Hour),
		Status:     domain.StatusScheduled,
	}
	if err := s.CreateMatch(ctx, upcoming); err != nil {
		r.AddErrorf("create upcoming match: %v", err)
	} else {
		matches = append(matches, upcoming)
		r.MatchesCreated++
	}

	cancelled := &domain.Match{
		LeagueID:   league.ID,
		HomeTeamID: teams[0].ID,
		AwayTeamID: teams[3].ID,
		KickoffAt:  now.Add(-24 * time.Hour),
		Status:     domain.StatusScheduled,
	}
	if err := s.CreateMatch(ctx, cancelled); err != nil {
		r.AddErrorf("create cancelled match: %v", err)
	} else {
		cancelled.Status = domain.StatusCancelled
		if err := s.UpdateMatch(ctx, cancelled); err != nil {
			r.AddErrorf("cancel match %d: %v", cancelled.ID, err)
		}
		r.MatchesCreated++
	}

	// Quote snapshots from two bookmakers, two retrieval rounds for the
	// first finished match so best/latest diverge visibly.
	type quote struct {
		match     *domain.Match
		bookmaker string
		home      string
		draw      string
		away      string
		age       time.Duration
	}
	quotes := []quote{
		{matches[0], "bet365", "2.10", "3.40", "3.50", 48 * time.Hour},
		{matches[0], "williamhill", "2.15", "3.30", "3.45", 48 * time.Hour},
		{matches[0], "bet365", "2.05", "3.50", "3.60", 24 * time.Hour},
	}
	if len(matches) > 3 {
		quotes = append(quotes,
			quote{matches[3], "bet365", "2.60", "3.25", "2.70", 2 * time.Hour},
			quote{matches[3], "williamhill", "2.55", "3.30", "2.75", time.Hour},
		)
	}
	for _, q := range quotes {
		o := &domain.Odds{
			MatchID:     q.match.ID,
			Bookmaker:   q.bookmaker,
			HomeWin:     dec(q.home),
			Draw:        dec(q.draw),
			AwayWin:     dec(q.away),
			Over25:      decPtr("1.85"),
			Under25:     decPtr("1.95"),
			RetrievedAt: now.Add(-q.age),
		}
		if err := s.InsertOdds(ctx, o); err != nil {
			r.AddErrorf("insert odds: %v", err)
			continue
		}
		r.QuotesCreated++
	}

	users := []*domain.User{{Username: "alice"}, {Username: "bob"}}
	for _, u := range users {
		if err := s.CreateUser(ctx, u); err != nil {
			r.AddErrorf("create user %s: %v", u.Username, err)
			continue
		}
		r.UsersCreated++
	}

	// Alice wagers on the first finished match; bob tracks a pick without
	// staking anything.
	preds := []*domain.Prediction{
		{
			UserID:     users[0].ID,
			MatchID:    matches[0].ID,
			Outcome:    domain.OutcomeHomeWin,
			Confidence: 0.72,
			Stake:      decPtr("10.00"),
			OddsUsed:   decPtr("2.50"),
			Notes:      "home side unbeaten at home this season",
		},
		{
			UserID:     users[0].ID,
			MatchID:    matches[1].ID,
			Outcome:    domain.OutcomeAwayWin,
			Confidence: 0.55,
			Stake:      decPtr("5.00"),
			OddsUsed:   decPtr("2.20"),
		},
		{
			UserID:     users[1].ID,
			MatchID:    matches[0].ID,
			Outcome:    domain.OutcomeDraw,
			Confidence: 0.40,
		},
	}
	for _, p := range preds {
		if err := s.CreatePrediction(ctx, p); err != nil {
			r.AddErrorf("create prediction: %v", err)
			continue
		}
		r.PredictionsCreated++
	}

	// Derive standings and settlements for everything already finished.
	for _, m := range matches {
		if m.Status != domain.StatusFinished {
			continue
		}
		res := proc.ProcessMatch(ctx, m.ID)
		if !res.Success {
			r.AddErrorf("process match %d: %s", m.ID, res.Error)
			continue
		}
		r.MatchesProcessed++
	}

	logger.Info("Demo dataset seeded", "summary", r.Summary())
	return r
}

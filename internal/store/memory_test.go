package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matchdaylabs/matchday/internal/domain"
)

func intPtr(n int) *int { return &n }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type world struct {
	store  *Memory
	league *domain.League
	teams  []*domain.Team
	user   *domain.User
}

func seedWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	mem := NewMemory()

	league := &domain.League{Name: "League", Season: "2023-24", Type: domain.LeagueDomestic}
	if err := mem.CreateLeague(ctx, league); err != nil {
		t.Fatalf("create league: %v", err)
	}
	var teams []*domain.Team
	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		tm := &domain.Team{LeagueID: league.ID, Name: name}
		if err := mem.CreateTeam(ctx, tm); err != nil {
			t.Fatalf("create team %s: %v", name, err)
		}
		teams = append(teams, tm)
	}
	user := &domain.User{Username: "tester"}
	if err := mem.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &world{store: mem, league: league, teams: teams, user: user}
}

func (w *world) match(t *testing.T, home, away *domain.Team, status domain.MatchStatus, homeGoals, awayGoals *int) *domain.Match {
	t.Helper()
	m := &domain.Match{
		LeagueID:   w.league.ID,
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		KickoffAt:  time.Now().UTC(),
		Status:     status,
		HomeGoals:  homeGoals,
		AwayGoals:  awayGoals,
	}
	if err := w.store.CreateMatch(context.Background(), m); err != nil {
		t.Fatalf("create match: %v", err)
	}
	return m
}

func TestCreateMatchRejectsUnknownReferences(t *testing.T) {
	w := seedWorld(t)
	ctx := context.Background()

	bad := &domain.Match{
		LeagueID:   999,
		HomeTeamID: w.teams[0].ID,
		AwayTeamID: w.teams[1].ID,
		KickoffAt:  time.Now(),
		Status:     domain.StatusScheduled,
	}
	if err := w.store.CreateMatch(ctx, bad); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown league: err = %v, want ErrNotFound", err)
	}

	bad = &domain.Match{
		LeagueID:   w.league.ID,
		HomeTeamID: w.teams[0].ID,
		AwayTeamID: 999,
		KickoffAt:  time.Now(),
		Status:     domain.StatusScheduled,
	}
	if err := w.store.CreateMatch(ctx, bad); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown team: err = %v, want ErrNotFound", err)
	}
}

func TestListMatchesFilters(t *testing.T) {
	w := seedWorld(t)
	ctx := context.Background()

	w.match(t, w.teams[0], w.teams[1], domain.StatusFinished, intPtr(2), intPtr(1))
	w.match(t, w.teams[1], w.teams[2], domain.StatusScheduled, nil, nil)
	w.match(t, w.teams[2], w.teams[0], domain.StatusFinished, intPtr(0), intPtr(0))

	finished := domain.StatusFinished
	got, err := w.store.ListMatches(ctx, MatchFilter{Status: &finished})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("finished matches = %d, want 2", len(got))
	}

	teamID := w.teams[0].ID
	got, err = w.store.ListMatches(ctx, MatchFilter{TeamID: &teamID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("team matches = %d, want 2", len(got))
	}

	got, err = w.store.ListMatches(ctx, MatchFilter{Limit: 1, Offset: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("paged matches = %d, want 1", len(got))
	}
}

func TestFinishedMatchesByTeamScopesToSeason(t *testing.T) {
	w := seedWorld(t)
	ctx := context.Background()

	// A second league carries a different season label; its matches must not
	// leak into a 2023-24 query.
	oldLeague := &domain.League{Name: "Old", Season: "2022-23", Type: domain.LeagueDomestic}
	if err := w.store.CreateLeague(ctx, oldLeague); err != nil {
		t.Fatalf("create league: %v", err)
	}
	oldTeam := &domain.Team{LeagueID: oldLeague.ID, Name: "Delta"}
	if err := w.store.CreateTeam(ctx, oldTeam); err != nil {
		t.Fatalf("create team: %v", err)
	}
	oldMatch := &domain.Match{
		LeagueID:   oldLeague.ID,
		HomeTeamID: w.teams[0].ID,
		AwayTeamID: oldTeam.ID,
		KickoffAt:  time.Now().UTC(),
		Status:     domain.StatusFinished,
		HomeGoals:  intPtr(4),
		AwayGoals:  intPtr(0),
	}
	if err := w.store.CreateMatch(ctx, oldMatch); err != nil {
		t.Fatalf("create match: %v", err)
	}

	w.match(t, w.teams[0], w.teams[1], domain.StatusFinished, intPtr(2), intPtr(1))
	w.match(t, w.teams[1], w.teams[0], domain.StatusScheduled, nil, nil)

	got, err := w.store.FinishedMatchesByTeam(ctx, w.teams[0].ID, "2023-24")
	if err != nil {
		t.Fatalf("finished by team: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("matches = %d, want 1 (scheduled and other-season excluded)", len(got))
	}
	if got[0].LeagueID != w.league.ID {
		t.Errorf("match league = %d, want %d", got[0].LeagueID, w.league.ID)
	}
}

func TestDeleteMatchCascades(t *testing.T) {
	w := seedWorld(t)
	ctx := context.Background()

	m := w.match(t, w.teams[0], w.teams[1], domain.StatusFinished, intPtr(2), intPtr(1))
	o := &domain.Odds{
		MatchID:     m.ID,
		Bookmaker:   "bet365",
		HomeWin:     decimal.RequireFromString("2.10"),
		Draw:        decimal.RequireFromString("3.40"),
		AwayWin:     decimal.RequireFromString("3.50"),
		RetrievedAt: time.Now().UTC(),
	}
	if err := w.store.InsertOdds(ctx, o); err != nil {
		t.Fatalf("insert odds: %v", err)
	}
	p := &domain.Prediction{
		UserID:  w.user.ID,
		MatchID: m.ID,
		Outcome: domain.OutcomeHomeWin,
		Stake:   decPtr("10.00"), OddsUsed: decPtr("2.50"),
	}
	if err := w.store.CreatePrediction(ctx, p); err != nil {
		t.Fatalf("create prediction: %v", err)
	}
	r := &domain.PredictionResult{
		ID:            uuid.New(),
		PredictionID:  p.ID,
		ActualOutcome: domain.OutcomeHomeWin,
		IsCorrect:     true,
		Revision:      1,
		EvaluatedAt:   time.Now().UTC(),
	}
	if err := w.store.InsertResult(ctx, r); err != nil {
		t.Fatalf("insert result: %v", err)
	}

	if err := w.store.DeleteMatch(ctx, m.ID); err != nil {
		t.Fatalf("delete match: %v", err)
	}

	if _, err := w.store.GetMatch(ctx, m.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("match survived delete: %v", err)
	}
	quotes, err := w.store.OddsByMatch(ctx, m.ID)
	if err != nil {
		t.Fatalf("odds by match: %v", err)
	}
	if len(quotes) != 0 {
		t.Errorf("odds rows = %d, want 0 after cascade", len(quotes))
	}
	if _, err := w.store.GetPrediction(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("prediction survived delete: %v", err)
	}
	if _, err := w.store.CurrentResult(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("settlement record survived delete: %v", err)
	}
}

func TestDeleteLeagueCascades(t *testing.T) {
	w := seedWorld(t)
	ctx := context.Background()

	m := w.match(t, w.teams[0], w.teams[1], domain.StatusFinished, intPtr(1), intPtr(0))
	if err := w.store.UpsertTeamStats(ctx, &domain.TeamStats{
		TeamID: w.teams[0].ID, Season: w.league.Season, MatchesPlayed: 1, Wins: 1, Points: 3,
	}); err != nil {
		t.Fatalf("upsert stats: %v", err)
	}

	if err := w.store.DeleteLeague(ctx, w.league.ID); err != nil {
		t.Fatalf("delete league: %v", err)
	}

	if _, err := w.store.GetTeam(ctx, w.teams[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("team survived delete: %v", err)
	}
	if _, err := w.store.GetMatch(ctx, m.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("match survived delete: %v", err)
	}
	if _, err := w.store.TeamStats(ctx, w.teams[0].ID, w.league.Season); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("team stats survived delete: %v", err)
	}
}

func TestSupersedeResultChain(t *testing.T) {
	w := seedWorld(t)
	ctx := context.Background()

	m := w.match(t, w.teams[0], w.teams[1], domain.StatusFinished, intPtr(2), intPtr(1))
	p := &domain.Prediction{UserID: w.user.ID, MatchID: m.ID, Outcome: domain.OutcomeHomeWin}
	if err := w.store.CreatePrediction(ctx, p); err != nil {
		t.Fatalf("create prediction: %v", err)
	}

	first := &domain.PredictionResult{
		ID: uuid.New(), PredictionID: p.ID,
		ActualOutcome: domain.OutcomeHomeWin, IsCorrect: true,
		Revision: 1, EvaluatedAt: time.Now().UTC(),
	}
	second := &domain.PredictionResult{
		ID: uuid.New(), PredictionID: p.ID,
		ActualOutcome: domain.OutcomeAwayWin, IsCorrect: false,
		Revision: 2, EvaluatedAt: time.Now().UTC(),
	}
	if err := w.store.InsertResult(ctx, first); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if err := w.store.InsertResult(ctx, second); err != nil {
		t.Fatalf("insert second: %v", err)
	}
	if err := w.store.SupersedeResult(ctx, first.ID, second.ID); err != nil {
		t.Fatalf("supersede: %v", err)
	}

	current, err := w.store.CurrentResult(ctx, p.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.ID != second.ID {
		t.Errorf("current = %s, want %s", current.ID, second.ID)
	}

	history, err := w.store.ResultHistory(ctx, p.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d rows, want 2", len(history))
	}
	if history[0].Revision != 1 || history[1].Revision != 2 {
		t.Errorf("history order = rev %d, rev %d, want oldest first", history[0].Revision, history[1].Revision)
	}
	if !history[0].Superseded() {
		t.Error("first record not marked superseded")
	}
}

func TestUpsertTeamStatsReplaces(t *testing.T) {
	w := seedWorld(t)
	ctx := context.Background()

	base := &domain.TeamStats{TeamID: w.teams[0].ID, Season: "2023-24", MatchesPlayed: 1, Wins: 1, Points: 3}
	if err := w.store.UpsertTeamStats(ctx, base); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	updated := &domain.TeamStats{TeamID: w.teams[0].ID, Season: "2023-24", MatchesPlayed: 2, Wins: 1, Draws: 1, Points: 4}
	if err := w.store.UpsertTeamStats(ctx, updated); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	got, err := w.store.TeamStats(ctx, w.teams[0].ID, "2023-24")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MatchesPlayed != 2 || got.Points != 4 {
		t.Errorf("stats = %d played / %d points, want 2/4", got.MatchesPlayed, got.Points)
	}
}

package fixture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matchdaylabs/matchday/internal/domain"
	"github.com/matchdaylabs/matchday/internal/settlement"
	"github.com/matchdaylabs/matchday/internal/standings"
	"github.com/matchdaylabs/matchday/internal/store"
)

func intPtr(n int) *int { return &n }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type harness struct {
	store  *store.Memory
	proc   *Processor
	league *domain.League
	teams  []*domain.Team
	user   *domain.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	league := &domain.League{Name: "L", Season: "2023-24", Type: domain.LeagueDomestic}
	if err := mem.CreateLeague(ctx, league); err != nil {
		t.Fatalf("create league: %v", err)
	}
	var teams []*domain.Team
	for _, name := range []string{"Home FC", "Away FC"} {
		tm := &domain.Team{LeagueID: league.ID, Name: name}
		if err := mem.CreateTeam(ctx, tm); err != nil {
			t.Fatalf("create team: %v", err)
		}
		teams = append(teams, tm)
	}
	user := &domain.User{Username: "tester"}
	if err := mem.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	proc := NewProcessor(mem,
		standings.NewEngine(mem, logger),
		settlement.NewEngine(mem, logger),
		logger)
	return &harness{store: mem, proc: proc, league: league, teams: teams, user: user}
}

func (h *harness) scheduledMatch(t *testing.T) *domain.Match {
	t.Helper()
	m := &domain.Match{
		LeagueID:   h.league.ID,
		HomeTeamID: h.teams[0].ID,
		AwayTeamID: h.teams[1].ID,
		KickoffAt:  time.Now().UTC(),
		Status:     domain.StatusScheduled,
	}
	if err := h.store.CreateMatch(context.Background(), m); err != nil {
		t.Fatalf("create match: %v", err)
	}
	return m
}

func finish(home, away int) ResultUpdate {
	return ResultUpdate{
		Status:    domain.StatusFinished,
		HomeGoals: intPtr(home),
		AwayGoals: intPtr(away),
	}
}

func TestApplyResultFinishesAndProcesses(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.scheduledMatch(t)

	p := &domain.Prediction{
		UserID: h.user.ID, MatchID: m.ID,
		Outcome: domain.OutcomeHomeWin,
		Stake:   decPtr("10.00"), OddsUsed: decPtr("2.50"),
	}
	if err := h.store.CreatePrediction(ctx, p); err != nil {
		t.Fatalf("create prediction: %v", err)
	}

	got, err := h.proc.ApplyResult(ctx, m.ID, finish(2, 1))
	if err != nil {
		t.Fatalf("apply result: %v", err)
	}
	if got.Status != domain.StatusFinished || *got.HomeGoals != 2 || *got.AwayGoals != 1 {
		t.Fatalf("match = %s %d-%d, want finished 2-1", got.Status, *got.HomeGoals, *got.AwayGoals)
	}

	// Standings rolled up for both sides.
	homeStats, err := h.store.TeamStats(ctx, h.teams[0].ID, h.league.Season)
	if err != nil {
		t.Fatalf("home stats: %v", err)
	}
	if homeStats.Wins != 1 || homeStats.Points != 3 {
		t.Errorf("home stats = %d wins / %d points, want 1/3", homeStats.Wins, homeStats.Points)
	}
	awayStats, err := h.store.TeamStats(ctx, h.teams[1].ID, h.league.Season)
	if err != nil {
		t.Fatalf("away stats: %v", err)
	}
	if awayStats.Losses != 1 || awayStats.Points != 0 {
		t.Errorf("away stats = %d losses / %d points, want 1/0", awayStats.Losses, awayStats.Points)
	}

	// Prediction settled in the same pass.
	r, err := h.store.CurrentResult(ctx, p.ID)
	if err != nil {
		t.Fatalf("current result: %v", err)
	}
	if !r.IsCorrect || r.ProfitLoss == nil || !r.ProfitLoss.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("settlement = correct=%v pl=%v, want correct with +15.00", r.IsCorrect, r.ProfitLoss)
	}
}

func TestApplyResultRejectsIllegalTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	m := h.scheduledMatch(t)
	if _, err := h.proc.ApplyResult(ctx, m.ID, finish(1, 0)); err != nil {
		t.Fatalf("finish: %v", err)
	}

	// Finished can only stay finished.
	for _, to := range []domain.MatchStatus{
		domain.StatusScheduled, domain.StatusLive, domain.StatusPostponed, domain.StatusCancelled,
	} {
		_, err := h.proc.ApplyResult(ctx, m.ID, ResultUpdate{Status: to})
		if !domain.IsValidation(err) {
			t.Errorf("finished -> %s: err = %v, want ValidationError", to, err)
		}
	}

	// Cancelled is terminal.
	m2 := h.scheduledMatch(t)
	if _, err := h.proc.ApplyResult(ctx, m2.ID, ResultUpdate{Status: domain.StatusCancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := h.proc.ApplyResult(ctx, m2.ID, ResultUpdate{Status: domain.StatusScheduled}); !domain.IsValidation(err) {
		t.Errorf("cancelled -> scheduled: err = %v, want ValidationError", err)
	}

	// Postponed can reopen.
	m3 := h.scheduledMatch(t)
	if _, err := h.proc.ApplyResult(ctx, m3.ID, ResultUpdate{Status: domain.StatusPostponed}); err != nil {
		t.Fatalf("postpone: %v", err)
	}
	if _, err := h.proc.ApplyResult(ctx, m3.ID, ResultUpdate{Status: domain.StatusScheduled}); err != nil {
		t.Errorf("postponed -> scheduled: %v", err)
	}
}

func TestApplyResultRequiresGoalsToFinish(t *testing.T) {
	h := newHarness(t)
	m := h.scheduledMatch(t)

	_, err := h.proc.ApplyResult(context.Background(), m.ID, ResultUpdate{
		Status:    domain.StatusFinished,
		HomeGoals: intPtr(1),
	})
	if !domain.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError for missing away goals", err)
	}

	// Nothing was persisted.
	got, err := h.store.GetMatch(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if got.Status != domain.StatusScheduled {
		t.Errorf("status = %s, want scheduled after rejected update", got.Status)
	}
}

func TestApplyResultCorrectionSupersedes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.scheduledMatch(t)

	p := &domain.Prediction{
		UserID: h.user.ID, MatchID: m.ID,
		Outcome: domain.OutcomeHomeWin,
		Stake:   decPtr("10.00"), OddsUsed: decPtr("2.50"),
	}
	if err := h.store.CreatePrediction(ctx, p); err != nil {
		t.Fatalf("create prediction: %v", err)
	}

	if _, err := h.proc.ApplyResult(ctx, m.ID, finish(2, 1)); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := h.proc.ApplyResult(ctx, m.ID, finish(1, 2)); err != nil {
		t.Fatalf("correct: %v", err)
	}

	history, err := h.store.ResultHistory(ctx, p.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d rows, want 2", len(history))
	}
	current, err := h.store.CurrentResult(ctx, p.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.IsCorrect || current.Revision != 2 {
		t.Errorf("current = correct=%v rev=%d, want incorrect rev 2", current.IsCorrect, current.Revision)
	}

	// Standings follow the corrected score.
	homeStats, err := h.store.TeamStats(ctx, h.teams[0].ID, h.league.Season)
	if err != nil {
		t.Fatalf("home stats: %v", err)
	}
	if homeStats.Losses != 1 || homeStats.Wins != 0 {
		t.Errorf("home stats = %d wins / %d losses, want 0/1 after correction", homeStats.Wins, homeStats.Losses)
	}
}

func TestRemoveMatchRecomputesRollups(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.scheduledMatch(t)

	if _, err := h.proc.ApplyResult(ctx, m.ID, finish(3, 0)); err != nil {
		t.Fatalf("finish: %v", err)
	}
	stats, err := h.store.TeamStats(ctx, h.teams[0].ID, h.league.Season)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.MatchesPlayed != 1 {
		t.Fatalf("played = %d, want 1", stats.MatchesPlayed)
	}

	if err := h.proc.RemoveMatch(ctx, m.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := h.store.GetMatch(ctx, m.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("match survived removal: %v", err)
	}
	stats, err = h.store.TeamStats(ctx, h.teams[0].ID, h.league.Season)
	if err != nil {
		t.Fatalf("stats after removal: %v", err)
	}
	if stats.MatchesPlayed != 0 || stats.Points != 0 {
		t.Errorf("stats = %d played / %d points, want 0/0 after removal", stats.MatchesPlayed, stats.Points)
	}
}

func TestProcessMatchRefusesUnfinished(t *testing.T) {
	h := newHarness(t)
	m := h.scheduledMatch(t)

	res := h.proc.ProcessMatch(context.Background(), m.ID)
	if res.Success {
		t.Fatal("processed a scheduled match")
	}
	if res.Error == "" {
		t.Error("expected an error message")
	}
}

func TestProcessFinishedBatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m := h.scheduledMatch(t)
		if _, err := h.proc.ApplyResult(ctx, m.ID, finish(i+1, i)); err != nil {
			t.Fatalf("finish match %d: %v", i, err)
		}
	}
	h.scheduledMatch(t) // stays scheduled, must be skipped

	run := h.proc.ProcessFinished(ctx, nil, 0, 2)
	if run.MatchesFound != 3 {
		t.Errorf("MatchesFound = %d, want 3", run.MatchesFound)
	}
	if run.MatchesSucceeded != 3 || run.MatchesFailed != 0 {
		t.Errorf("run = %d succeeded / %d failed, want 3/0: %v",
			run.MatchesSucceeded, run.MatchesFailed, run.Errors)
	}

	// Rollups are stable under reprocessing.
	before, err := h.store.TeamStats(ctx, h.teams[0].ID, h.league.Season)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	run = h.proc.ProcessFinished(ctx, nil, 0, 2)
	if run.MatchesFailed != 0 {
		t.Fatalf("reprocess failed: %v", run.Errors)
	}
	after, err := h.store.TeamStats(ctx, h.teams[0].ID, h.league.Season)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if after.MatchesPlayed != before.MatchesPlayed || after.Points != before.Points {
		t.Errorf("reprocessing changed the rollup: %+v vs %+v", after, before)
	}
}

func TestProcessFinishedScopesToLeague(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	m := h.scheduledMatch(t)
	if _, err := h.proc.ApplyResult(ctx, m.ID, finish(1, 0)); err != nil {
		t.Fatalf("finish: %v", err)
	}

	other := int64(999)
	run := h.proc.ProcessFinished(ctx, &other, 0, 1)
	if run.MatchesFound != 0 {
		t.Errorf("MatchesFound = %d, want 0 for foreign league", run.MatchesFound)
	}
}

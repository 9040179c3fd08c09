package fixture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/matchdaylabs/matchday/internal/domain"
	"github.com/matchdaylabs/matchday/internal/settlement"
	"github.com/matchdaylabs/matchday/internal/standings"
	"github.com/matchdaylabs/matchday/internal/store"
)

// Processor wires the rollup and settlement engines behind one post-match
// entry point.
type Processor struct {
	store      store.Store
	standings  *standings.Engine
	settlement *settlement.Engine
	logger     *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(s store.Store, st *standings.Engine, se *settlement.Engine, logger *slog.Logger) *Processor {
	return &Processor{store: s, standings: st, settlement: se, logger: logger}
}

// ProcessMatch recomputes both teams' rollups and settles every prediction
// on one finished match. Reprocessing an already-processed match changes
// nothing — both engines are idempotent — so the sweep can call this freely.
func (p *Processor) ProcessMatch(ctx context.Context, matchID int64) Result {
	start := time.Now()
	result := Result{MatchID: matchID}

	m, err := p.store.GetMatch(ctx, matchID)
	if err != nil {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}
	if m.Status != domain.StatusFinished {
		result.Error = "match is not finished"
		result.Duration = time.Since(start)
		return result
	}

	p.logger.Info("Processing finished match",
		"match_id", m.ID, "home_team", m.HomeTeamID, "away_team", m.AwayTeamID)

	if err := p.standings.RecomputeMatch(ctx, m); err != nil {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}
	result.TeamsRecomputed = 2

	sum, err := p.settlement.SettleMatch(ctx, matchID)
	if err != nil {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}
	result.PredictionsSettled = sum.Settled
	result.SettlementsSuperseded = sum.Superseded
	result.NotReady = sum.NotReady
	if len(sum.Errors) > 0 {
		result.Error = sum.Errors[0]
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// ProcessFinished finds finished matches (optionally scoped to one league)
// and reprocesses each through a bounded worker pool. This is the repair
// path: it brings rollups and settlements back in line after missed events
// or out-of-band data fixes.
func (p *Processor) ProcessFinished(ctx context.Context, leagueID *int64, maxMatches, workers int) RunResult {
	start := time.Now()
	var run RunResult

	status := domain.StatusFinished
	matches, err := p.store.ListMatches(ctx, store.MatchFilter{
		LeagueID: leagueID,
		Status:   &status,
		Limit:    maxMatches,
	})
	if err != nil {
		run.Errors = append(run.Errors, err.Error())
		run.Duration = time.Since(start)
		return run
	}

	run.MatchesFound = len(matches)
	if len(matches) == 0 {
		p.logger.Info("No finished matches to process")
		run.Duration = time.Since(start)
		return run
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(matches) {
		workers = len(matches)
	}

	ch := make(chan int64, len(matches))
	for i := range matches {
		ch <- matches[i].ID
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ch {
				res := p.ProcessMatch(ctx, id)

				mu.Lock()
				run.Results = append(run.Results, res)
				run.MatchesProcessed++
				if res.Success {
					run.MatchesSucceeded++
					run.PredictionsSettled += res.PredictionsSettled
				} else {
					run.MatchesFailed++
					run.Errors = append(run.Errors, res.Summary())
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	run.Duration = time.Since(start)
	p.logger.Info("Batch run complete", "summary", run.Summary())
	return run
}

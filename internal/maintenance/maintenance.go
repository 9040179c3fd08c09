// Package maintenance runs periodic background tasks as Go tickers.
// Replaces pg_cron — all scheduled work is driven from Go since the API is
// already a persistent, long-running service (required for LISTEN/NOTIFY).
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/matchdaylabs/matchday/internal/fixture"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	SweepInterval time.Duration // catch-up repair of rollups and settlements
	SweepWorkers  int
	SweepMax      int // max matches per sweep, 0 for unlimited
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		SweepInterval: 15 * time.Minute,
		SweepWorkers:  4,
		SweepMax:      200,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, proc *fixture.Processor, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started", "sweep", cfg.SweepInterval)

	tickers := make([]*time.Ticker, 0, 1)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Catch-up sweep: re-derive standings and settlements for finished
	// matches, repairing anything a crashed process or missed NOTIFY event
	// left stale. Idempotent rollups and verdict-compared settlements make
	// re-processing already consistent matches a no-op.
	if cfg.SweepInterval > 0 {
		t := time.NewTicker(cfg.SweepInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { sweep(ctx, proc, cfg, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

func sweep(ctx context.Context, proc *fixture.Processor, cfg Config, logger *slog.Logger) {
	run := proc.ProcessFinished(ctx, nil, cfg.SweepMax, cfg.SweepWorkers)
	if run.MatchesFound == 0 {
		return
	}
	if run.MatchesFailed > 0 {
		logger.Warn("Catch-up sweep finished with failures", "summary", run.Summary())
		return
	}
	logger.Info("Catch-up sweep finished", "summary", run.Summary())
}

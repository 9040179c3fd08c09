// Package fixture drives post-match processing. Once a match reaches a
// final result (or has its score corrected), both teams' season rollups are
// recomputed and every prediction on the match is settled. Processing can be
// triggered synchronously from a match-update event, from the LISTEN/NOTIFY
// consumer, or by the batch repair sweep — the engines are deterministic, so
// the trigger path never changes the outcome.
package fixture

import (
	"fmt"
	"time"
)

// Result tracks the outcome of processing a single match.
type Result struct {
	MatchID               int64
	TeamsRecomputed       int
	PredictionsSettled    int
	SettlementsSuperseded int
	NotReady              int
	Success               bool
	Error                 string
	Duration              time.Duration
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	status := "ok"
	if !r.Success {
		status = "FAILED"
	}
	return fmt.Sprintf("match=%d teams=%d settled=%d superseded=%d not_ready=%d status=%s dur=%s",
		r.MatchID, r.TeamsRecomputed, r.PredictionsSettled,
		r.SettlementsSuperseded, r.NotReady, status, r.Duration.Round(time.Millisecond))
}

// RunResult tracks the outcome of a full batch run.
type RunResult struct {
	MatchesFound       int
	MatchesProcessed   int
	MatchesSucceeded   int
	MatchesFailed      int
	PredictionsSettled int
	Duration           time.Duration
	Errors             []string
	Results            []Result
}

// Summary returns a human-readable summary.
func (r *RunResult) Summary() string {
	return fmt.Sprintf("found=%d processed=%d succeeded=%d failed=%d settled=%d dur=%s",
		r.MatchesFound, r.MatchesProcessed, r.MatchesSucceeded,
		r.MatchesFailed, r.PredictionsSettled, r.Duration.Round(time.Millisecond))
}

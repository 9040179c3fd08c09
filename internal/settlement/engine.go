package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/matchdaylabs/matchday/internal/domain"
	"github.com/matchdaylabs/matchday/internal/keylock"
	"github.com/matchdaylabs/matchday/internal/store"
)

// Engine settles predictions against the fact store. Settlement of a given
// prediction is serialized on its ID, so a synchronous match-event trigger
// and an asynchronous batch sweep can run concurrently without producing
// duplicate records.
type Engine struct {
	store  store.Store
	locks  *keylock.KeyLock
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(s store.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  s,
		locks:  keylock.New(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func settleKey(predictionID int64) string {
	return fmt.Sprintf("settle:%d", predictionID)
}

// Settle evaluates the prediction if its match has a final result.
//
//   - Unsettled prediction, final match: a settlement record is created.
//   - Already settled, same verdict: the existing record is returned
//     unchanged — re-settlement is idempotent.
//   - Already settled, different verdict (score was corrected): the old
//     record is stamped superseded and a replacement with the next revision
//     number is created. Both remain on file.
//   - Match not final: domain.ErrNotFinal, nothing written.
//   - Finished match without goals: domain.IntegrityError, logged, nothing
//     written.
func (e *Engine) Settle(ctx context.Context, predictionID int64) (*domain.PredictionResult, error) {
	key := settleKey(predictionID)
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	p, err := e.store.GetPrediction(ctx, predictionID)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	m, err := e.store.GetMatch(ctx, p.MatchID)
	if err != nil {
		return nil, fmt.Errorf("settle prediction %d: %w", predictionID, err)
	}

	computed, err := Evaluate(p, m, e.now())
	if err != nil {
		if domain.IsIntegrity(err) {
			e.logger.Warn("Settlement blocked by match data integrity",
				"prediction_id", predictionID, "match_id", m.ID, "error", err)
		}
		return nil, err
	}

	existing, err := e.store.CurrentResult(ctx, predictionID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := e.store.InsertResult(ctx, computed); err != nil {
			return nil, fmt.Errorf("record settlement for prediction %d: %w", predictionID, err)
		}
		e.logger.Info("Prediction settled",
			"prediction_id", predictionID, "match_id", m.ID,
			"actual", computed.ActualOutcome, "correct", computed.IsCorrect)
		return computed, nil
	case err != nil:
		return nil, fmt.Errorf("load settlement for prediction %d: %w", predictionID, err)
	}

	if existing.SameVerdict(computed) {
		return existing, nil
	}

	// The match result changed under an existing settlement. Keep the old
	// record and chain in the replacement.
	computed.Revision = existing.Revision + 1
	if err := e.store.InsertResult(ctx, computed); err != nil {
		return nil, fmt.Errorf("record superseding settlement for prediction %d: %w", predictionID, err)
	}
	if err := e.store.SupersedeResult(ctx, existing.ID, computed.ID); err != nil {
		return nil, fmt.Errorf("supersede settlement %s: %w", existing.ID, err)
	}
	e.logger.Info("Settlement superseded after score correction",
		"prediction_id", predictionID, "match_id", m.ID,
		"old_revision", existing.Revision, "new_revision", computed.Revision,
		"old_outcome", existing.ActualOutcome, "new_outcome", computed.ActualOutcome)
	return computed, nil
}

// MatchSummary reports the outcome of settling every prediction on a match.
type MatchSummary struct {
	MatchID    int64
	Settled    int
	Unchanged  int
	Superseded int
	NotReady   int
	Errors     []string
}

// Summary returns a human-readable one-liner.
func (s *MatchSummary) Summary() string {
	return fmt.Sprintf("match=%d settled=%d unchanged=%d superseded=%d not_ready=%d errors=%d",
		s.MatchID, s.Settled, s.Unchanged, s.Superseded, s.NotReady, len(s.Errors))
}

// SettleMatch settles all predictions referencing the match. Per-prediction
// failures are collected, not fatal; the caller's scheduler owns retries.
func (e *Engine) SettleMatch(ctx context.Context, matchID int64) (*MatchSummary, error) {
	predictions, err := e.store.PredictionsByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("settle match %d: %w", matchID, err)
	}

	sum := &MatchSummary{MatchID: matchID}
	for i := range predictions {
		p := &predictions[i]

		before, beforeErr := e.store.CurrentResult(ctx, p.ID)

		r, err := e.Settle(ctx, p.ID)
		switch {
		case errors.Is(err, domain.ErrNotFinal) || domain.IsIntegrity(err):
			sum.NotReady++
		case err != nil:
			sum.Errors = append(sum.Errors, fmt.Sprintf("prediction %d: %v", p.ID, err))
		case beforeErr == nil && before.ID == r.ID:
			sum.Unchanged++
		case beforeErr == nil:
			sum.Superseded++
		default:
			sum.Settled++
		}
	}
	return sum, nil
}

// Package report aggregates a user's settled predictions into summary
// performance statistics. It reads settlement records only; it never
// triggers settlement itself.
package report

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/matchdaylabs/matchday/internal/domain"
	"github.com/matchdaylabs/matchday/internal/store"
)

// UserStats summarizes one user's prediction record.
//
// TotalPredictions counts every prediction, settled or not, so pending
// items stay visible. CorrectPredictions and TotalProfitLoss cover settled
// predictions only, and TotalProfitLoss sums only settlements where a stake
// was recorded — StakedSettlements is the matching denominator, so callers
// computing a return percentage divide by the right count instead of by
// TotalPredictions.
type UserStats struct {
	UserID             int64            `json:"user_id"`
	TotalPredictions   int              `json:"total_predictions"`
	SettledPredictions int              `json:"settled_predictions"`
	CorrectPredictions int              `json:"correct_predictions"`
	Accuracy           float64          `json:"accuracy"` // over settled predictions
	AverageConfidence  float64          `json:"average_confidence"`
	StakedSettlements  int              `json:"staked_settlements"`
	TotalStake         *decimal.Decimal `json:"total_stake,omitempty"`
	TotalProfitLoss    *decimal.Decimal `json:"total_profit_loss,omitempty"`
	ROI                *decimal.Decimal `json:"roi,omitempty"` // percentage
}

// Reporter computes user statistics from the fact store.
type Reporter struct {
	store store.Store
}

// New creates a Reporter.
func New(s store.Store) *Reporter {
	return &Reporter{store: s}
}

// UserStats folds the user's predictions and their current settlements into
// a summary. A prediction whose settlement has a null profit/loss (no stake
// recorded) counts toward accuracy but is excluded from the money sums.
func (r *Reporter) UserStats(ctx context.Context, userID int64) (*UserStats, error) {
	if _, err := r.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	predictions, err := r.store.PredictionsByUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("user stats %d: %w", userID, err)
	}
	results, err := r.store.ResultsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user stats %d: %w", userID, err)
	}

	byPrediction := make(map[int64]*domain.PredictionResult, len(results))
	for i := range results {
		byPrediction[results[i].PredictionID] = &results[i]
	}

	stats := &UserStats{UserID: userID, TotalPredictions: len(predictions)}
	if len(predictions) == 0 {
		return stats, nil
	}

	var (
		confidenceSum float64
		stakeSum      = decimal.Zero
		plSum         = decimal.Zero
	)
	for i := range predictions {
		p := &predictions[i]
		confidenceSum += p.Confidence

		res, ok := byPrediction[p.ID]
		if !ok {
			continue
		}
		stats.SettledPredictions++
		if res.IsCorrect {
			stats.CorrectPredictions++
		}
		if res.ProfitLoss == nil {
			// Analytical prediction: no stake, excluded from the money
			// sums rather than counted as zero.
			continue
		}
		stats.StakedSettlements++
		plSum = plSum.Add(*res.ProfitLoss)
		if p.Stake != nil {
			stakeSum = stakeSum.Add(*p.Stake)
		}
	}

	stats.AverageConfidence = confidenceSum / float64(len(predictions))
	if stats.SettledPredictions > 0 {
		stats.Accuracy = float64(stats.CorrectPredictions) / float64(stats.SettledPredictions)
	}
	if stats.StakedSettlements > 0 {
		stats.TotalStake = &stakeSum
		stats.TotalProfitLoss = &plSum
		if stakeSum.IsPositive() {
			roi := plSum.Div(stakeSum).Mul(decimal.NewFromInt(100))
			stats.ROI = &roi
		}
	}
	return stats, nil
}

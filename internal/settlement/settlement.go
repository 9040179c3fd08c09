// Package settlement derives the outcome of saved predictions once their
// match has a final result: actual outcome, correctness, and — for wagered
// predictions — profit/loss and return rate in exact decimal arithmetic.
// A prediction settles at most once; a later score correction supersedes
// the old record through an audit chain instead of overwriting it.
package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matchdaylabs/matchday/internal/domain"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Evaluate computes the settlement of one prediction against one match.
// It is a pure function: the same inputs always produce the same verdict
// (the record ID and timestamp are the only varying fields).
//
// It returns domain.ErrNotFinal while the match is scheduled, live,
// postponed, or cancelled, and a domain.IntegrityError when the match is
// marked finished without both goal counts. Neither condition settles
// anything.
func Evaluate(p *domain.Prediction, m *domain.Match, at time.Time) (*domain.PredictionResult, error) {
	actual, err := m.Result()
	if err != nil {
		return nil, err
	}

	r := &domain.PredictionResult{
		ID:            uuid.New(),
		PredictionID:  p.ID,
		ActualOutcome: actual,
		IsCorrect:     p.Outcome == actual,
		Revision:      1,
		EvaluatedAt:   at,
	}

	// Money is computed only for wagered predictions; analytical
	// predictions settle with null profit/loss and return rate.
	if p.Wagered() {
		var pl decimal.Decimal
		if r.IsCorrect {
			pl = p.Stake.Mul(p.OddsUsed.Sub(one))
		} else {
			pl = p.Stake.Neg()
		}
		// Zero stakes are rejected at prediction creation, so the rate is
		// always defined here.
		rate := pl.Div(*p.Stake).Mul(hundred)
		r.ProfitLoss = &pl
		r.ReturnRate = &rate
	}

	return r, nil
}

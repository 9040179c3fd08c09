// Package odds computes read-side summaries over bookmaker quotes: the best
// available price per market and the latest quote per bookmaker. Both are
// stateless folds over the append-only odds rows for one match; nothing
// here writes.
package odds

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matchdaylabs/matchday/internal/domain"
	"github.com/matchdaylabs/matchday/internal/store"
)

// Quote is one market's winning entry in a best-odds summary.
type Quote struct {
	Price       decimal.Decimal `json:"odds"`
	Bookmaker   string          `json:"bookmaker"`
	RetrievedAt time.Time       `json:"retrieved_at"`
}

// Best is the best available price for each of the three outcomes of a
// match. HasData is false when no quotes exist yet — callers must treat
// that as "no odds yet", distinct from any transport failure.
type Best struct {
	MatchID int64 `json:"match_id"`
	HasData bool  `json:"has_data"`
	HomeWin Quote `json:"home_win"`
	Draw    Quote `json:"draw"`
	AwayWin Quote `json:"away_win"`
}

// Aggregator answers odds queries against the fact store.
type Aggregator struct {
	store store.Store
}

// NewAggregator creates an Aggregator over the given store.
func NewAggregator(s store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// BestOdds returns the per-market maximum across all quotes on file for the
// match. Equal prices resolve to the earliest retrieval time, then to the
// lexicographically smaller bookmaker name, so the result is deterministic
// for any insertion order.
func (a *Aggregator) BestOdds(ctx context.Context, matchID int64) (*Best, error) {
	if _, err := a.store.GetMatch(ctx, matchID); err != nil {
		return nil, fmt.Errorf("best odds: %w", err)
	}
	quotes, err := a.store.OddsByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("best odds: %w", err)
	}
	return FoldBest(matchID, quotes), nil
}

// FoldBest computes a Best summary from a quote set. Exposed separately so
// the fold can be exercised without a store.
func FoldBest(matchID int64, quotes []domain.Odds) *Best {
	best := &Best{MatchID: matchID}
	if len(quotes) == 0 {
		return best
	}
	best.HasData = true
	best.HomeWin = pickBest(quotes, func(o *domain.Odds) decimal.Decimal { return o.HomeWin })
	best.Draw = pickBest(quotes, func(o *domain.Odds) decimal.Decimal { return o.Draw })
	best.AwayWin = pickBest(quotes, func(o *domain.Odds) decimal.Decimal { return o.AwayWin })
	return best
}

// pickBest selects the maximum price for one market. Tie order: oldest
// retrieval timestamp first (the most established price), bookmaker name
// second.
func pickBest(quotes []domain.Odds, price func(*domain.Odds) decimal.Decimal) Quote {
	winner := &quotes[0]
	for i := 1; i < len(quotes); i++ {
		q := &quotes[i]
		switch price(q).Cmp(price(winner)) {
		case 1:
			winner = q
		case 0:
			if q.RetrievedAt.Before(winner.RetrievedAt) ||
				(q.RetrievedAt.Equal(winner.RetrievedAt) && q.Bookmaker < winner.Bookmaker) {
				winner = q
			}
		}
	}
	return Quote{
		Price:       price(winner),
		Bookmaker:   winner.Bookmaker,
		RetrievedAt: winner.RetrievedAt,
	}
}

// LatestQuotesByBookmaker returns, for each bookmaker with quotes on file,
// only its most recent quote, ordered by bookmaker name. This is the
// listing view; it is not the per-market maximum that BestOdds computes.
func (a *Aggregator) LatestQuotesByBookmaker(ctx context.Context, matchID int64) ([]domain.Odds, error) {
	if _, err := a.store.GetMatch(ctx, matchID); err != nil {
		return nil, fmt.Errorf("latest quotes: %w", err)
	}
	quotes, err := a.store.OddsByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("latest quotes: %w", err)
	}
	return FoldLatest(quotes), nil
}

// FoldLatest reduces a quote set to the newest quote per bookmaker.
func FoldLatest(quotes []domain.Odds) []domain.Odds {
	latest := make(map[string]domain.Odds)
	for _, q := range quotes {
		cur, ok := latest[q.Bookmaker]
		if !ok || q.RetrievedAt.After(cur.RetrievedAt) {
			latest[q.Bookmaker] = q
		}
	}
	out := make([]domain.Odds, 0, len(latest))
	for _, q := range latest {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bookmaker < out[j].Bookmaker })
	return out
}

// Comparison returns every bookmaker's latest quote keyed by bookmaker, the
// tabular view used by the odds comparison endpoint.
func (a *Aggregator) Comparison(ctx context.Context, matchID int64) (map[string]domain.Odds, error) {
	latest, err := a.LatestQuotesByBookmaker(ctx, matchID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Odds, len(latest))
	for _, q := range latest {
		out[q.Bookmaker] = q
	}
	return out, nil
}

// Bookmakers lists the distinct bookmakers with any quote in the store.
func (a *Aggregator) Bookmakers(ctx context.Context) ([]string, error) {
	return a.store.Bookmakers(ctx)
}

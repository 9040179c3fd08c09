package fixture

import (
	"context"
	"fmt"

	"github.com/matchdaylabs/matchday/internal/domain"
)

// ResultUpdate is a match lifecycle event from the finality notifier: a
// status transition, a score update, or a correction to an already-final
// score.
type ResultUpdate struct {
	Status    domain.MatchStatus
	HomeGoals *int
	AwayGoals *int
	Home      *domain.SideStats
	Away      *domain.SideStats
}

// allowedTransitions encodes the match status machine. A finished match can
// only stay finished (score corrections); cancelled is terminal.
var allowedTransitions = map[domain.MatchStatus][]domain.MatchStatus{
	domain.StatusScheduled: {domain.StatusScheduled, domain.StatusLive, domain.StatusFinished, domain.StatusPostponed, domain.StatusCancelled},
	domain.StatusLive:      {domain.StatusLive, domain.StatusFinished, domain.StatusPostponed, domain.StatusCancelled},
	domain.StatusPostponed: {domain.StatusScheduled, domain.StatusLive, domain.StatusFinished, domain.StatusPostponed, domain.StatusCancelled},
	domain.StatusFinished:  {domain.StatusFinished},
	domain.StatusCancelled: {domain.StatusCancelled},
}

func transitionAllowed(from, to domain.MatchStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyResult validates and persists a lifecycle event, then runs post-match
// processing when the match is (still) finished. Applying the same event
// twice is harmless: the persisted facts are identical and the downstream
// engines are idempotent.
func (p *Processor) ApplyResult(ctx context.Context, matchID int64, upd ResultUpdate) (*domain.Match, error) {
	m, err := p.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("apply result: %w", err)
	}

	if !upd.Status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown status"}
	}
	if !transitionAllowed(m.Status, upd.Status) {
		return nil, &domain.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("transition %s -> %s is not allowed", m.Status, upd.Status),
		}
	}
	if upd.Status == domain.StatusFinished && (upd.HomeGoals == nil || upd.AwayGoals == nil) {
		return nil, &domain.ValidationError{Field: "goals", Reason: "finished match requires both goal counts"}
	}

	m.Status = upd.Status
	if upd.HomeGoals != nil {
		m.HomeGoals = upd.HomeGoals
	}
	if upd.AwayGoals != nil {
		m.AwayGoals = upd.AwayGoals
	}
	if upd.Home != nil {
		m.Home = *upd.Home
	}
	if upd.Away != nil {
		m.Away = *upd.Away
	}

	if err := p.store.UpdateMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("apply result to match %d: %w", matchID, err)
	}

	switch upd.Status {
	case domain.StatusFinished:
		if res := p.ProcessMatch(ctx, matchID); !res.Success {
			return nil, fmt.Errorf("post-match processing for match %d: %s", matchID, res.Error)
		}
	case domain.StatusPostponed, domain.StatusCancelled:
		// The match no longer contributes to standings; refresh both teams.
		// Predictions on it stay permanently unsettled.
		if err := p.standings.RecomputeMatch(ctx, m); err != nil {
			return nil, fmt.Errorf("recompute after %s: %w", upd.Status, err)
		}
	}
	return m, nil
}

// RemoveMatch deletes a match with its owned odds, predictions, and
// settlements, then recomputes the two affected rollups. Other teams'
// records are untouched.
func (p *Processor) RemoveMatch(ctx context.Context, matchID int64) error {
	m, err := p.store.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("remove match: %w", err)
	}
	if err := p.store.DeleteMatch(ctx, matchID); err != nil {
		return fmt.Errorf("remove match %d: %w", matchID, err)
	}
	p.logger.Info("Match removed", "match_id", matchID)
	if err := p.standings.RecomputeMatch(ctx, m); err != nil {
		return fmt.Errorf("recompute after removing match %d: %w", matchID, err)
	}
	return nil
}

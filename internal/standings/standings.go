// Package standings recomputes per-(team, season) season records as a pure
// fold over the finished matches on file. There is no incremental counter
// state anywhere: replaying the same match set always yields the same
// rollup, which is what makes re-ingestion safe.
package standings

import (
	"github.com/matchdaylabs/matchday/internal/domain"
)

// FoldResult carries the recomputed rollup and the IDs of any finished
// matches that had to be excluded because they lack goal counts. Excluded
// matches are a data-integrity problem for the ingestion side to correct;
// they never fail the fold.
type FoldResult struct {
	Stats    domain.TeamStats
	Excluded []int64
}

// Fold computes the season record for one team from the given match set.
// Matches where the team did not play, matches that are not finished, and
// finished matches without both goal counts contribute nothing. Rolling
/// averages cover only matches where the team's side recorded the statistic:
// a missing value is excluded from numerator and denominator alike.
func Fold(teamID int64, season string, matches []domain.Match) FoldResult {
	res := FoldResult{Stats: domain.TeamStats{TeamID: teamID, Season: season}}
	s := &res.Stats

	var (
		possessionSum float64
		possessionN   int
		shotsSum      int
		shotsN        int
		onTargetSum   int
		onTargetN     int
	)

	for i := range matches {
		m := &matches[i]
		if m.Status != domain.StatusFinished {
			continue
		}
		side := m.SideOf(teamID)
		if side == "" {
			continue
		}
		if !m.HasGoals() {
			res.Excluded = append(res.Excluded, m.ID)
			continue
		}

		var scored, conceded int
		var sideStats *domain.SideStats
		if side == "home" {
			scored, conceded = *m.HomeGoals, *m.AwayGoals
			sideStats = &m.Home
		} else {
			scored, conceded = *m.AwayGoals, *m.HomeGoals
			sideStats = &m.Away
		}

		s.MatchesPlayed++
		s.GoalsFor += scored
		s.GoalsAgainst += conceded
		switch {
		case scored > conceded:
			s.Wins++
		case scored < conceded:
			s.Losses++
		default:
			s.Draws++
		}

		if sideStats.Possession != nil {
			possessionSum += *sideStats.Possession
			possessionN++
		}
		if sideStats.Shots != nil {
			shotsSum += *sideStats.Shots
			shotsN++
		}
		if sideStats.ShotsOnTarget != nil {
			onTargetSum += *sideStats.ShotsOnTarget
			onTargetN++
		}
	}

	// Derived columns are functions of the counters above, recomputed on
	// every fold and never carried over.
	s.GoalDifference = s.GoalsFor - s.GoalsAgainst
	s.Points = 3*s.Wins + s.Draws

	if possessionN > 0 {
		v := possessionSum / float64(possessionN)
		s.AvgPossession = &v
	}
	if shotsN > 0 {
		v := float64(shotsSum) / float64(shotsN)
		s.AvgShots = &v
	}
	if onTargetN > 0 {
		v := float64(onTargetSum) / float64(onTargetN)
		s.AvgShotsOnTarget = &v
	}

	return res
}

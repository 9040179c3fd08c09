// Package seed populates a fact store with the demo dataset: one league of
// teams, a round of matches in every lifecycle state, bookmaker quotes, and
// user predictions. Demo mode and the admin seed command both run it.
package seed

import "fmt"

// SeedResult tracks counts and errors from a seeding operation.
type SeedResult struct {
	LeaguesCreated     int
	TeamsCreated       int
	MatchesCreated     int
	QuotesCreated      int
	UsersCreated       int
	PredictionsCreated int
	MatchesProcessed   int
	Errors             []string
}

// AddError records an error message.
func (r *SeedResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *SeedResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the seed operation.
func (r *SeedResult) Summary() string {
	return fmt.Sprintf(
		"leagues=%d teams=%d matches=%d quotes=%d users=%d predictions=%d processed=%d errors=%d",
		r.LeaguesCreated, r.TeamsCreated, r.MatchesCreated, r.QuotesCreated,
		r.UsersCreated, r.PredictionsCreated, r.MatchesProcessed, len(r.Errors),
	)
}

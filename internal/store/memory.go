package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matchdaylabs/matchday/internal/domain"
)

// Memory is a thread-safe in-memory Store. It backs the test suite and the
// demo mode of cmd/admin; production runs on Postgres.
type Memory struct {
	mu sync.RWMutex

	leagues     map[int64]domain.League
	teams       map[int64]domain.Team
	users       map[int64]domain.User
	matches     map[int64]domain.Match
	odds        map[int64]domain.Odds
	predictions map[int64]domain.Prediction
	results     map[uuid.UUID]domain.PredictionResult
	teamStats   map[string]domain.TeamStats // key: teamID + "\x00" + season
	metrics     []domain.ModelMetrics

	nextID int64
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		leagues:     make(map[int64]domain.League),
		teams:       make(map[int64]domain.Team),
		users:       make(map[int64]domain.User),
		matches:     make(map[int64]domain.Match),
		odds:        make(map[int64]domain.Odds),
		predictions: make(map[int64]domain.Prediction),
		results:     make(map[uuid.UUID]domain.PredictionResult),
		teamStats:   make(map[string]domain.TeamStats),
	}
}

func (m *Memory) nextSeq() int64 {
	m.nextID++
	return m.nextID
}

func statsKey(teamID int64, season string) string {
	return fmt.Sprintf("%d\x00%s", teamID, season)
}

// --------------------------------------------------------------------------
// Leagues
// --------------------------------------------------------------------------

func (m *Memory) CreateLeague(_ context.Context, l *domain.League) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.ID = m.nextSeq()
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	m.leagues[l.ID] = *l
	return nil
}

func (m *Memory) GetLeague(_ context.Context, id int64) (*domain.League, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.leagues[id]
	if !ok {
		return nil, fmt.Errorf("league %d: %w", id, domain.ErrNotFound)
	}
	return &l, nil
}

func (m *Memory) ListLeagues(_ context.Context) ([]domain.League, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.League, 0, len(m.leagues))
	for _, l := range m.leagues {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteLeague removes the league and walks the ownership tree: teams, their
// season rollups, matches, and everything each match owns.
func (m *Memory) DeleteLeague(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leagues[id]; !ok {
		return fmt.Errorf("league %d: %w", id, domain.ErrNotFound)
	}

	for mid, match := range m.matches {
		if match.LeagueID == id {
			m.deleteMatchLocked(mid)
		}
	}
	for tid, t := range m.teams {
		if t.LeagueID == id {
			for key, s := range m.teamStats {
				if s.TeamID == tid {
					delete(m.teamStats, key)
				}
			}
			delete(m.teams, tid)
		}
	}
	delete(m.leagues, id)
	return nil
}

// --------------------------------------------------------------------------
// Teams
// --------------------------------------------------------------------------

func (m *Memory) CreateTeam(_ context.Context, t *domain.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leagues[t.LeagueID]; !ok {
		return fmt.Errorf("league %d: %w", t.LeagueID, domain.ErrNotFound)
	}
	t.ID = m.nextSeq()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	m.teams[t.ID] = *t
	return nil
}

func (m *Memory) GetTeam(_ context.Context, id int64) (*domain.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %d: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

func (m *Memory) TeamsByLeague(_ context.Context, leagueID int64) ([]domain.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Team
	for _, t := range m.teams {
		if t.LeagueID == leagueID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --------------------------------------------------------------------------
// Users
// --------------------------------------------------------------------------

func (m *Memory) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u.ID = m.nextSeq()
	u.CreatedAt = time.Now().UTC()
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

// --------------------------------------------------------------------------
// Matches
// --------------------------------------------------------------------------

func (m *Memory) CreateMatch(_ context.Context, match *domain.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leagues[match.LeagueID]; !ok {
		return fmt.Errorf("league %d: %w", match.LeagueID, domain.ErrNotFound)
	}
	if _, ok := m.teams[match.HomeTeamID]; !ok {
		return fmt.Errorf("team %d: %w", match.HomeTeamID, domain.ErrNotFound)
	}
	if _, ok := m.teams[match.AwayTeamID]; !ok {
		return fmt.Errorf("team %d: %w", match.AwayTeamID, domain.ErrNotFound)
	}
	match.ID = m.nextSeq()
	now := time.Now().UTC()
	match.CreatedAt, match.UpdatedAt = now, now
	m.matches[match.ID] = *match
	return nil
}

func (m *Memory) GetMatch(_ context.Context, id int64) (*domain.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	match, ok := m.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %d: %w", id, domain.ErrNotFound)
	}
	return &match, nil
}

func (m *Memory) ListMatches(_ context.Context, f MatchFilter) ([]domain.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Match
	for _, match := range m.matches {
		if f.LeagueID != nil && match.LeagueID != *f.LeagueID {
			continue
		}
		if f.Status != nil && match.Status != *f.Status {
			continue
		}
		if f.TeamID != nil && match.SideOf(*f.TeamID) == "" {
			continue
		}
		out = append(out, match)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KickoffAt.Before(out[j].KickoffAt) })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) FinishedMatchesByTeam(_ context.Context, teamID int64, season string) ([]domain.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Match
	for _, match := range m.matches {
		if match.Status != domain.StatusFinished || match.SideOf(teamID) == "" {
			continue
		}
		l, ok := m.leagues[match.LeagueID]
		if !ok || l.Season != season {
			continue
		}
		out = append(out, match)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KickoffAt.Before(out[j].KickoffAt) })
	return out, nil
}

func (m *Memory) UpdateMatch(_ context.Context, match *domain.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.matches[match.ID]; !ok {
		return fmt.Errorf("match %d: %w", match.ID, domain.ErrNotFound)
	}
	match.UpdatedAt = time.Now().UTC()
	m.matches[match.ID] = *match
	return nil
}

func (m *Memory) DeleteMatch(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.matches[id]; !ok {
		return fmt.Errorf("match %d: %w", id, domain.ErrNotFound)
	}
	m.deleteMatchLocked(id)
	return nil
}

// deleteMatchLocked removes a match and its owned odds, predictions, and
// settlement records. Caller holds the write lock.
func (m *Memory) deleteMatchLocked(id int64) {
	for oid, o := range m.odds {
		if o.MatchID == id {
			delete(m.odds, oid)
		}
	}
	for pid, p := range m.predictions {
		if p.MatchID != id {
			continue
		}
		for rid, r := range m.results {
			if r.PredictionID == pid {
				delete(m.results, rid)
			}
		}
		delete(m.predictions, pid)
	}
	delete(m.matches, id)
}

// --------------------------------------------------------------------------
// Odds
// --------------------------------------------------------------------------

func (m *Memory) InsertOdds(_ context.Context, o *domain.Odds) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.matches[o.MatchID]; !ok {
		return fmt.Errorf("match %d: %w", o.MatchID, domain.ErrNotFound)
	}
	o.ID = m.nextSeq()
	o.CreatedAt = time.Now().UTC()
	m.odds[o.ID] = *o
	return nil
}

func (m *Memory) OddsByMatch(_ context.Context, matchID int64) ([]domain.Odds, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Odds
	for _, o := range m.odds {
		if o.MatchID == matchID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RetrievedAt.Before(out[j].RetrievedAt) })
	return out, nil
}

func (m *Memory) Bookmakers(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	for _, o := range m.odds {
		seen[o.Bookmaker] = true
	}
	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out, nil
}

// --------------------------------------------------------------------------
// Predictions
// --------------------------------------------------------------------------

func (m *Memory) CreatePrediction(_ context.Context, p *domain.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[p.UserID]; !ok {
		return fmt.Errorf("user %d: %w", p.UserID, domain.ErrNotFound)
	}
	if _, ok := m.matches[p.MatchID]; !ok {
		return fmt.Errorf("match %d: %w", p.MatchID, domain.ErrNotFound)
	}
	p.ID = m.nextSeq()
	p.CreatedAt = time.Now().UTC()
	m.predictions[p.ID] = *p
	return nil
}

func (m *Memory) GetPrediction(_ context.Context, id int64) (*domain.Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.predictions[id]
	if !ok {
		return nil, fmt.Errorf("prediction %d: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (m *Memory) PredictionsByUser(_ context.Context, userID int64, limit, offset int) ([]domain.Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Prediction
	for _, p := range m.predictions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) PredictionsByMatch(_ context.Context, matchID int64) ([]domain.Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Prediction
	for _, p := range m.predictions {
		if p.MatchID == matchID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --------------------------------------------------------------------------
// Settlement records
// --------------------------------------------------------------------------

func (m *Memory) CurrentResult(_ context.Context, predictionID int64) (*domain.PredictionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.results {
		if r.PredictionID == predictionID && !r.Superseded() {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("settlement for prediction %d: %w", predictionID, domain.ErrNotFound)
}

func (m *Memory) InsertResult(_ context.Context, r *domain.PredictionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.predictions[r.PredictionID]; !ok {
		return fmt.Errorf("prediction %d: %w", r.PredictionID, domain.ErrNotFound)
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.results[r.ID] = *r
	return nil
}

func (m *Memory) SupersedeResult(_ context.Context, old uuid.UUID, by uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.results[old]
	if !ok {
		return fmt.Errorf("settlement %s: %w", old, domain.ErrNotFound)
	}
	r.SupersededBy = &by
	m.results[old] = r
	return nil
}

func (m *Memory) ResultsByUser(_ context.Context, userID int64) ([]domain.PredictionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.PredictionResult
	for _, r := range m.results {
		if r.Superseded() {
			continue
		}
		p, ok := m.predictions[r.PredictionID]
		if !ok || p.UserID != userID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PredictionID < out[j].PredictionID })
	return out, nil
}

func (m *Memory) ResultHistory(_ context.Context, predictionID int64) ([]domain.PredictionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.PredictionResult
	for _, r := range m.results {
		if r.PredictionID == predictionID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revision < out[j].Revision })
	return out, nil
}

// --------------------------------------------------------------------------
// Team stats
// --------------------------------------------------------------------------

func (m *Memory) UpsertTeamStats(_ context.Context, s *domain.TeamStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.UpdatedAt = time.Now().UTC()
	m.teamStats[statsKey(s.TeamID, s.Season)] = *s
	return nil
}

func (m *Memory) TeamStats(_ context.Context, teamID int64, season string) (*domain.TeamStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.teamStats[statsKey(teamID, season)]
	if !ok {
		return nil, fmt.Errorf("team stats %d/%s: %w", teamID, season, domain.ErrNotFound)
	}
	return &s, nil
}

// --------------------------------------------------------------------------
// Model metrics
// --------------------------------------------------------------------------

// AddModelMetrics records a training run. Only the test suite and demo
// seeder call this; the service itself is a reader.
func (m *Memory) AddModelMetrics(metrics domain.ModelMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics.ID = m.nextSeq()
	metrics.CreatedAt = time.Now().UTC()
	m.metrics = append(m.metrics, metrics)
}

func (m *Memory) ListModelMetrics(_ context.Context, limit int) ([]domain.ModelMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ModelMetrics, len(m.metrics))
	copy(out, m.metrics)
	sort.Slice(out, func(i, j int) bool { return out[i].TrainingDate.After(out[j].TrainingDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

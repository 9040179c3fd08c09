package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/matchdaylabs/matchday/internal/api/respond"
	"github.com/matchdaylabs/matchday/internal/domain"
	"github.com/matchdaylabs/matchday/internal/fixture"
	"github.com/matchdaylabs/matchday/internal/store"
)

type createMatchRequest struct {
	LeagueID   int64     `json:"league_id"`
	HomeTeamID int64     `json:"home_team_id"`
	AwayTeamID int64     `json:"away_team_id"`
	KickoffAt  time.Time `json:"match_date"`
	Status     string    `json:"status"`
	ExternalID *string   `json:"external_id"`
}

// CreateMatch schedules a match between two teams of a league.
// @Summary Create match
// @Tags matches
// @Accept json
// @Produce json
// @Success 201 {object} domain.Match
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /matches [post]
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	m := &domain.Match{
		LeagueID:   req.LeagueID,
		HomeTeamID: req.HomeTeamID,
		AwayTeamID: req.AwayTeamID,
		KickoffAt:  req.KickoffAt,
		Status:     domain.MatchStatus(req.Status),
		ExternalID: req.ExternalID,
	}
	if err := domain.ValidateMatch(m); err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	ctx := r.Context()
	if _, err := h.store.GetLeague(ctx, m.LeagueID); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	for _, teamID := range []int64{m.HomeTeamID, m.AwayTeamID} {
		if _, err := h.store.GetTeam(ctx, teamID); err != nil {
			respond.WriteDomainError(w, err)
			return
		}
	}

	if err := h.store.CreateMatch(ctx, m); err != nil {
		h.logger.Error("create match failed", "error", err)
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, m)
}

// ListMatches returns matches matching the query filters.
// @Summary List matches
// @Tags matches
// @Produce json
// @Param league_id query int false "League filter"
// @Param team_id query int false "Team filter (either side)"
// @Param status query string false "Status filter" Enums(scheduled, live, finished, postponed, cancelled)
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {array} domain.Match
// @Router /matches [get]
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.MatchFilter

	if v := q.Get("league_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "BAD_FILTER", "league_id must be an integer")
			return
		}
		f.LeagueID = &id
	}
	if v := q.Get("team_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "BAD_FILTER", "team_id must be an integer")
			return
		}
		f.TeamID = &id
	}
	if v := q.Get("status"); v != "" {
		st := domain.MatchStatus(v)
		if !st.Valid() {
			respond.WriteError(w, http.StatusBadRequest, "BAD_FILTER", "unknown status "+v)
			return
		}
		f.Status = &st
	}
	f.Limit = 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			f.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}

	matches, err := h.store.ListMatches(r.Context(), f)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if matches == nil {
		matches = []domain.Match{}
	}
	respond.WriteJSONObject(w, http.StatusOK, matches)
}

type matchDetail struct {
	*domain.Match
	OddsCount       int `json:"odds_count"`
	PredictionCount int `json:"prediction_count"`
}

// GetMatch returns a match with its quote and prediction counts.
// @Summary Get match
// @Tags matches
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} domain.Match
// @Failure 404 {object} respond.ErrorResponse
// @Router /matches/{id} [get]
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	ctx := r.Context()
	m, err := h.store.GetMatch(ctx, id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	quotes, err := h.store.OddsByMatch(ctx, id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	preds, err := h.store.PredictionsByMatch(ctx, id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, matchDetail{
		Match:           m,
		OddsCount:       len(quotes),
		PredictionCount: len(preds),
	})
}

type resultUpdateRequest struct {
	Status    string            `json:"status"`
	HomeGoals *int              `json:"home_goals"`
	AwayGoals *int              `json:"away_goals"`
	Home      *domain.SideStats `json:"home_stats"`
	Away      *domain.SideStats `json:"away_stats"`
}

// UpdateMatchResult applies a score or status update. A transition to
// finished triggers the standings rollup for both teams and settlement of
// the match's predictions; a corrected score on an already finished match
// supersedes prior settlements.
// @Summary Apply match result or status update
// @Tags matches
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} domain.Match
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /matches/{id}/result [patch]
func (h *Handler) UpdateMatchResult(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	var req resultUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		badBody(w, err)
		return
	}
	st := domain.MatchStatus(req.Status)
	if !st.Valid() {
		respond.WriteError(w, http.StatusBadRequest, "BAD_STATUS", "unknown status "+req.Status)
		return
	}

	m, err := h.fixtures.ApplyResult(r.Context(), id, fixture.ResultUpdate{
		Status:    st,
		HomeGoals: req.HomeGoals,
		AwayGoals: req.AwayGoals,
		Home:      req.Home,
		Away:      req.Away,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	h.cache.InvalidatePrefix(fmt.Sprintf("standings:%d", m.LeagueID))
	respond.WriteJSONObject(w, http.StatusOK, m)
}

// DeleteMatch removes a match with its odds, predictions, and settlement
// records, then recomputes both teams' standings.
// @Summary Delete match (cascades)
// @Tags matches
// @Param id path int true "Match ID"
// @Success 204
// @Failure 404 {object} respond.ErrorResponse
// @Router /matches/{id} [delete]
func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	ctx := r.Context()
	m, err := h.store.GetMatch(ctx, id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if err := h.fixtures.RemoveMatch(ctx, id); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	h.cache.InvalidatePrefix(fmt.Sprintf("standings:%d", m.LeagueID))
	h.cache.InvalidatePrefix(fmt.Sprintf("odds:%d", id))
	w.WriteHeader(http.StatusNoContent)
}

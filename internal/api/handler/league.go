package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/matchdaylabs/matchday/internal/api/respond"
	"github.com/matchdaylabs/matchday/internal/cache"
	"github.com/matchdaylabs/matchday/internal/domain"
)

type createLeagueRequest struct {
	Name       string  `json:"name"`
	Country    string  `json:"country"`
	Season     string  `json:"season"`
	Type       string  `json:"league_type"`
	ExternalID *string `json:"external_id"`
}

// CreateLeague registers a new league.
// @Summary Create league
// @Tags leagues
// @Accept json
// @Produce json
// @Success 201 {object} domain.League
// @Failure 400 {object} respond.ErrorResponse
// @Router /leagues [post]
func (h *Handler) CreateLeague(w http.ResponseWriter, r *http.Request) {
	var req createLeagueRequest
	if err := decodeBody(w, r, &req); err != nil {
		badBody(w, err)
		return
	}
	if req.Name == "" || req.Season == "" {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION", "name and season are required")
		return
	}
	lt := domain.LeagueType(req.Type)
	if lt == "" {
		lt = domain.LeagueDomestic
	}

	l := &domain.League{
		Name:       req.Name,
		Country:    req.Country,
		Season:     req.Season,
		Type:       lt,
		ExternalID: req.ExternalID,
	}
	if err := h.store.CreateLeague(r.Context(), l); err != nil {
		h.logger.Error("create league failed", "error", err)
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, l)
}

// ListLeagues returns all leagues.
// @Summary List leagues
// @Tags leagues
// @Produce json
// @Success 200 {array} domain.League
// @Router /leagues [get]
func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.store.ListLeagues(r.Context())
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if leagues == nil {
		leagues = []domain.League{}
	}
	respond.WriteJSONObject(w, http.StatusOK, leagues)
}

// GetLeague returns one league by ID.
// @Summary Get league
// @Tags leagues
// @Produce json
// @Param id path int true "League ID"
// @Success 200 {object} domain.League
// @Failure 404 {object} respond.ErrorResponse
// @Router /leagues/{id} [get]
func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	l, err := h.store.GetLeague(r.Context(), id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, l)
}

// DeleteLeague removes a league and everything it owns: teams, matches,
// odds, predictions, and settlement records.
// @Summary Delete league (cascades)
// @Tags leagues
// @Param id path int true "League ID"
// @Success 204
// @Failure 404 {object} respond.ErrorResponse
// @Router /leagues/{id} [delete]
func (h *Handler) DeleteLeague(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	if err := h.store.DeleteLeague(r.Context(), id); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	h.cache.InvalidatePrefix(fmt.Sprintf("standings:%d", id))
	w.WriteHeader(http.StatusNoContent)
}

// LeagueTeams lists the teams of a league.
// @Summary List league teams
// @Tags leagues
// @Produce json
// @Param id path int true "League ID"
// @Success 200 {array} domain.Team
// @Router /leagues/{id}/teams [get]
func (h *Handler) LeagueTeams(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	if _, err := h.store.GetLeague(r.Context(), id); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	teams, err := h.store.TeamsByLeague(r.Context(), id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if teams == nil {
		teams = []domain.Team{}
	}
	respond.WriteJSONObject(w, http.StatusOK, teams)
}

type createTeamRequest struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	FoundedYear *int    `json:"founded_year"`
	ExternalID  *string `json:"external_id"`
}

// CreateTeam adds a team to a league.
// @Summary Create team in league
// @Tags leagues
// @Accept json
// @Produce json
// @Param id path int true "League ID"
// @Success 201 {object} domain.Team
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /leagues/{id}/teams [post]
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	var req createTeamRequest
	if err := decodeBody(w, r, &req); err != nil {
		badBody(w, err)
		return
	}
	if req.Name == "" {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION", "name is required")
		return
	}
	if _, err := h.store.GetLeague(r.Context(), id); err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	t := &domain.Team{
		LeagueID:    id,
		Name:        req.Name,
		Country:     req.Country,
		FoundedYear: req.FoundedYear,
		ExternalID:  req.ExternalID,
	}
	if err := h.store.CreateTeam(r.Context(), t); err != nil {
		h.logger.Error("create team failed", "error", err)
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, t)
}

// GetTeam returns one team by ID.
// @Summary Get team
// @Tags teams
// @Produce json
// @Param id path int true "Team ID"
// @Success 200 {object} domain.Team
// @Failure 404 {object} respond.ErrorResponse
// @Router /teams/{id} [get]
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	t, err := h.store.GetTeam(r.Context(), id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, t)
}

// TeamStats returns the current season rollup for a team. The season
// defaults to the team's league season and can be overridden with ?season=.
// @Summary Team season statistics
// @Tags teams
// @Produce json
// @Param id path int true "Team ID"
// @Param season query string false "Season tag, e.g. 2023-24"
// @Success 200 {object} domain.TeamStats
// @Failure 404 {object} respond.ErrorResponse
// @Router /teams/{id}/stats [get]
func (h *Handler) TeamStats(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	season := r.URL.Query().Get("season")
	if season == "" {
		t, err := h.store.GetTeam(r.Context(), id)
		if err != nil {
			respond.WriteDomainError(w, err)
			return
		}
		l, err := h.store.GetLeague(r.Context(), t.LeagueID)
		if err != nil {
			respond.WriteDomainError(w, err)
			return
		}
		season = l.Season
	}

	stats, err := h.standings.Recompute(r.Context(), id, season)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, stats)
}

// LeagueStandings returns the sorted league table. Responses are cached
// with ETags; the cache is invalidated when a match in the league finishes.
// @Summary League standings table
// @Tags leagues
// @Produce json
// @Param id path int true "League ID"
// @Success 200 {array} standings.TableRow
// @Failure 404 {object} respond.ErrorResponse
// @Router /leagues/{id}/standings [get]
func (h *Handler) LeagueStandings(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}

	cacheKey := fmt.Sprintf("standings:%d", id)
	ttl := cache.TTLStandings

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	table, err := h.standings.Table(r.Context(), id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	data, err := json.Marshal(table)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	etag := h.cache.Set(cacheKey, data, ttl)
	respond.WriteJSON(w, data, etag, ttl, false)
}

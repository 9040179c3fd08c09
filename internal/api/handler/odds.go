package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matchdaylabs/matchday/internal/api/respond"
	"github.com/matchdaylabs/matchday/internal/cache"
	"github.com/matchdaylabs/matchday/internal/domain"
)

type ingestOddsRequest struct {
	MatchID     int64            `json:"match_id"`
	Bookmaker   string           `json:"bookmaker"`
	HomeWin     decimal.Decimal  `json:"home_win_odds"`
	Draw        decimal.Decimal  `json:"draw_odds"`
	AwayWin     decimal.Decimal  `json:"away_win_odds"`
	Over25      *decimal.Decimal `json:"over_2_5_odds"`
	Under25     *decimal.Decimal `json:"under_2_5_odds"`
	RetrievedAt *time.Time       `json:"retrieved_at"`
}

// IngestOdds appends one bookmaker quote snapshot. Quotes are never
// updated in place; a newer price is a new row.
// @Summary Ingest odds quote
// @Tags odds
// @Accept json
// @Produce json
// @Success 201 {object} domain.Odds
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /odds [post]
func (h *Handler) IngestOdds(w http.ResponseWriter, r *http.Request) {
	var req ingestOddsRequest
	if err := decodeBody(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	o := &domain.Odds{
		MatchID:   req.MatchID,
		Bookmaker: req.Bookmaker,
		HomeWin:   req.HomeWin,
		Draw:      req.Draw,
		AwayWin:   req.AwayWin,
		Over25:    req.Over25,
		Under25:   req.Under25,
	}
	if req.RetrievedAt != nil {
		o.RetrievedAt = *req.RetrievedAt
	} else {
		o.RetrievedAt = time.Now().UTC()
	}
	if err := domain.ValidateOdds(o); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if _, err := h.store.GetMatch(r.Context(), o.MatchID); err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	if err := h.store.InsertOdds(r.Context(), o); err != nil {
		h.logger.Error("insert odds failed", "error", err, "match_id", o.MatchID)
		respond.WriteDomainError(w, err)
		return
	}

	h.cache.InvalidatePrefix(fmt.Sprintf("odds:%d", o.MatchID))
	respond.WriteJSONObject(w, http.StatusCreated, o)
}

// MatchOdds returns every quote on file for a match, oldest first.
// @Summary All quotes for a match
// @Tags odds
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {array} domain.Odds
// @Failure 404 {object} respond.ErrorResponse
// @Router /odds/match/{id} [get]
func (h *Handler) MatchOdds(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	if _, err := h.store.GetMatch(r.Context(), id); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	quotes, err := h.store.OddsByMatch(r.Context(), id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if quotes == nil {
		quotes = []domain.Odds{}
	}
	respond.WriteJSONObject(w, http.StatusOK, quotes)
}

// BestOdds returns the best available price per outcome across bookmakers.
// A match with no quotes answers has_data=false rather than 404.
// @Summary Best odds per outcome
// @Tags odds
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} odds.Best
// @Failure 404 {object} respond.ErrorResponse
// @Router /odds/match/{id}/best [get]
func (h *Handler) BestOdds(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}

	cacheKey := fmt.Sprintf("odds:%d:best", id)
	ttl := cache.TTLOdds

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	best, err := h.odds.BestOdds(r.Context(), id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	data, err := json.Marshal(best)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	etag := h.cache.Set(cacheKey, data, ttl)
	respond.WriteJSON(w, data, etag, ttl, false)
}

// LatestOdds returns the newest quote per bookmaker.
// @Summary Latest quote per bookmaker
// @Tags odds
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {array} domain.Odds
// @Failure 404 {object} respond.ErrorResponse
// @Router /odds/match/{id}/latest [get]
func (h *Handler) LatestOdds(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	latest, err := h.odds.LatestQuotesByBookmaker(r.Context(), id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, latest)
}

// OddsComparison returns the latest quote keyed by bookmaker.
// @Summary Odds comparison table
// @Tags odds
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]domain.Odds
// @Failure 404 {object} respond.ErrorResponse
// @Router /odds/match/{id}/comparison [get]
func (h *Handler) OddsComparison(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	cmp, err := h.odds.Comparison(r.Context(), id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, cmp)
}

// Bookmakers lists every bookmaker with a quote on file.
// @Summary List bookmakers
// @Tags odds
// @Produce json
// @Success 200 {array} string
// @Router /odds/bookmakers [get]
func (h *Handler) Bookmakers(w http.ResponseWriter, r *http.Request) {
	books, err := h.odds.Bookmakers(r.Context())
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if books == nil {
		books = []string{}
	}
	respond.WriteJSONObject(w, http.StatusOK, books)
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/matchdaylabs/matchday/internal/api/respond"
	"github.com/matchdaylabs/matchday/internal/domain"
)

type createUserRequest struct {
	Username string `json:"username"`
}

// CreateUser registers a user.
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Success 201 {object} domain.User
// @Failure 400 {object} respond.ErrorResponse
// @Router /users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		badBody(w, err)
		return
	}
	if req.Username == "" {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION", "username is required")
		return
	}
	u := &domain.User{Username: req.Username}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, u)
}

// GetUser returns one user.
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} domain.User
// @Failure 404 {object} respond.ErrorResponse
// @Router /users/{id} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	u, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, u)
}

type createPredictionRequest struct {
	UserID     int64            `json:"user_id"`
	MatchID    int64            `json:"match_id"`
	Outcome    string           `json:"predicted_outcome"`
	Confidence float64          `json:"confidence"`
	Stake      *decimal.Decimal `json:"stake"`
	OddsUsed   *decimal.Decimal `json:"odds_used"`
	Notes      string           `json:"notes"`
}

// CreatePrediction records a forecast for a match that has not finished.
// A zero stake is rejected; an analytical prediction omits the stake
// entirely.
// @Summary Create prediction
// @Tags predictions
// @Accept json
// @Produce json
// @Success 201 {object} domain.Prediction
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /predictions [post]
func (h *Handler) CreatePrediction(w http.ResponseWriter, r *http.Request) {
	var req createPredictionRequest
	if err := decodeBody(w, r, &req); err != nil {
		badBody(w, err)
		return
	}

	p := &domain.Prediction{
		UserID:     req.UserID,
		MatchID:    req.MatchID,
		Outcome:    domain.Outcome(req.Outcome),
		Confidence: req.Confidence,
		Stake:      req.Stake,
		OddsUsed:   req.OddsUsed,
		Notes:      req.Notes,
	}
	if err := domain.ValidatePrediction(p); err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	ctx := r.Context()
	if _, err := h.store.GetUser(ctx, p.UserID); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	m, err := h.store.GetMatch(ctx, p.MatchID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	switch m.Status {
	case domain.StatusFinished:
		respond.WriteError(w, http.StatusConflict, "MATCH_FINISHED", "cannot predict a finished match")
		return
	case domain.StatusCancelled:
		respond.WriteError(w, http.StatusConflict, "MATCH_CANCELLED", "cannot predict a cancelled match")
		return
	}

	if err := h.store.CreatePrediction(ctx, p); err != nil {
		h.logger.Error("create prediction failed", "error", err)
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, p)
}

type predictionDetail struct {
	*domain.Prediction
	Result *domain.PredictionResult `json:"result,omitempty"`
}

// GetPrediction returns a prediction with its current settlement, if any.
// @Summary Get prediction
// @Tags predictions
// @Produce json
// @Param id path int true "Prediction ID"
// @Success 200 {object} domain.Prediction
// @Failure 404 {object} respond.ErrorResponse
// @Router /predictions/{id} [get]
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	ctx := r.Context()
	p, err := h.store.GetPrediction(ctx, id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	res, err := h.store.CurrentResult(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, predictionDetail{Prediction: p, Result: res})
}

// SettlePrediction settles one prediction on demand. Already settled
// predictions answer the existing record; an unfinished match answers 409.
// @Summary Settle prediction
// @Tags predictions
// @Produce json
// @Param id path int true "Prediction ID"
// @Success 200 {object} domain.PredictionResult
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /predictions/{id}/settle [post]
func (h *Handler) SettlePrediction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	res, err := h.settlement.Settle(r.Context(), id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, res)
}

// PredictionHistory returns every settlement ever recorded for a
// prediction, superseded revisions included, oldest first.
// @Summary Settlement audit trail
// @Tags predictions
// @Produce json
// @Param id path int true "Prediction ID"
// @Success 200 {array} domain.PredictionResult
// @Failure 404 {object} respond.ErrorResponse
// @Router /predictions/{id}/history [get]
func (h *Handler) PredictionHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	ctx := r.Context()
	if _, err := h.store.GetPrediction(ctx, id); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	history, err := h.store.ResultHistory(ctx, id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if history == nil {
		history = []domain.PredictionResult{}
	}
	respond.WriteJSONObject(w, http.StatusOK, history)
}

// UserPredictions lists a user's predictions, newest page first via
// limit/offset.
// @Summary List user predictions
// @Tags predictions
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {array} domain.Prediction
// @Failure 404 {object} respond.ErrorResponse
// @Router /predictions/user/{id} [get]
func (h *Handler) UserPredictions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	ctx := r.Context()
	if _, err := h.store.GetUser(ctx, id); err != nil {
		respond.WriteDomainError(w, err)
		return
	}

	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	preds, err := h.store.PredictionsByUser(ctx, id, limit, offset)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if preds == nil {
		preds = []domain.Prediction{}
	}
	respond.WriteJSONObject(w, http.StatusOK, preds)
}

// UserStats returns a user's aggregated prediction performance.
// @Summary User performance stats
// @Tags predictions
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} report.UserStats
// @Failure 404 {object} respond.ErrorResponse
// @Router /predictions/user/{id}/stats [get]
func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_ID", err.Error())
		return
	}
	stats, err := h.report.UserStats(r.Context(), id)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, stats)
}

// ModelMetrics lists recorded model training runs, newest first.
// @Summary List model metrics
// @Tags models
// @Produce json
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {array} domain.ModelMetrics
// @Router /models/metrics [get]
func (h *Handler) ModelMetrics(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	metrics, err := h.store.ListModelMetrics(r.Context(), limit)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if metrics == nil {
		metrics = []domain.ModelMetrics{}
	}
	respond.WriteJSONObject(w, http.StatusOK, metrics)
}

package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"airdrop-hunter-go/internal/logging"
	"airdrop-hunter-go/internal/models"
	"airdrop-hunter-go/internal/store"
)

const ratingRangeMessage = "Rating must be a number between 1 and 5"

// GetRatingHandler returns the caller's rating and the aggregate stats.
func (h *Handler) GetRatingHandler(w http.ResponseWriter, r *http.Request) {
	airdropID := chi.URLParam(r, "id")
	clientKey := h.Limiter.KeyFn(r)

	userRating, err := h.Ratings.GetUserRating(r.Context(), airdropID, clientKey)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("airdrop_id", airdropID).Msg("failed to get user rating")
		writeError(w, http.StatusInternalServerError, "Failed to get rating data")
		return
	}
	stats, err := h.Ratings.GetAirdropRatingStats(r.Context(), airdropID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("airdrop_id", airdropID).Msg("failed to get rating stats")
		writeError(w, http.StatusInternalServerError, "Failed to get rating data")
		return
	}

	var current *int
	if userRating != nil {
		current = &userRating.Rating
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userRating": current,
		"stats":      stats,
		"success":    true,
	})
}

// SubmitRatingHandler serves both POST and PUT; the store upserts.
func (h *Handler) SubmitRatingHandler(w http.ResponseWriter, r *http.Request) {
	airdropID := chi.URLParam(r, "id")

	var req struct {
		Rating float64 `json:"rating"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ratingRangeMessage)
		return
	}
	if req.Rating != math.Trunc(req.Rating) || !models.ValidRating(int(req.Rating)) {
		writeError(w, http.StatusBadRequest, ratingRangeMessage)
		return
	}
	rating := int(req.Rating)

	result, err := h.Ratings.SubmitRating(r.Context(), airdropID, h.Limiter.KeyFn(r), rating, r.UserAgent())
	if errors.Is(err, store.ErrInvalidRating) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("airdrop_id", airdropID).Msg("failed to submit rating")
		writeError(w, http.StatusInternalServerError, "Failed to submit rating")
		return
	}

	stats, err := h.Ratings.GetAirdropRatingStats(r.Context(), airdropID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("airdrop_id", airdropID).Msg("failed to get rating stats")
		writeError(w, http.StatusInternalServerError, "Failed to submit rating")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Rating submitted successfully",
		"userRating": rating,
		"stats":      stats,
		"data":       result,
	})
}

func (h *Handler) RatingHistoryHandler(w http.ResponseWriter, r *http.Request) {
	airdropID := chi.URLParam(r, "id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	limit = min(max(limit, 0), 200)

	history, err := h.Ratings.GetRatingHistory(r.Context(), airdropID, limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("airdrop_id", airdropID).Msg("failed to get rating history")
		writeError(w, http.StatusInternalServerError, "Failed to get rating history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ratings": history, "success": true})
}

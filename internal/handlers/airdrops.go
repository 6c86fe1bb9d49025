package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"airdrop-hunter-go/internal/logging"
	"airdrop-hunter-go/internal/models"
	"airdrop-hunter-go/internal/store"
)

func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return n
}

// ListAirdropsHandler serves the public catalog.
func (h *Handler) ListAirdropsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, total, err := h.Airdrops.ListAirdrops(r.Context(), models.AirdropFilter{
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Search:   q.Get("search"),
		Limit:    queryInt(r, "limit", 50),
		Offset:   queryInt(r, "offset", 0),
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to fetch airdrops")
		writeError(w, http.StatusInternalServerError, "Failed to fetch airdrops")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"airdrops": list, "total": total})
}

func (h *Handler) GetAirdropHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.Airdrops.GetAirdrop(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Airdrop not found")
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("airdrop_id", id).Msg("failed to fetch airdrop")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// === Admin catalog management ===

// AdminListAirdropsHandler pages the catalog by page number instead of offset.
func (h *Handler) AdminListAirdropsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := max(queryInt(r, "page", 1), 1)
	limit := queryInt(r, "limit", 20)
	if limit <= 0 {
		limit = 20
	}
	limit = min(limit, 100)

	list, total, err := h.Airdrops.ListAirdrops(r.Context(), models.AirdropFilter{
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Search:   q.Get("search"),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to fetch airdrops")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to fetch airdrops"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    list,
		"pagination": map[string]int{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": (total + limit - 1) / limit,
		},
	})
}

type airdropRequest struct {
	Name         string              `json:"name" validate:"required,max=200"`
	Logo         string              `json:"logo" validate:"max=500"`
	Description  string              `json:"description" validate:"required,max=5000"`
	Action       string              `json:"action" validate:"required,max=200"`
	Category     string              `json:"category" validate:"required,oneof=latest hottest potential"`
	Status       string              `json:"status" validate:"required,oneof=active confirmed upcoming ended"`
	Difficulty   string              `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Reward       string              `json:"reward" validate:"max=200"`
	StartDate    string              `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	SocialLinks  map[string]string   `json:"socialLinks" validate:"max=8,dive,omitempty,url"`
	About        models.AirdropAbout `json:"about"`
	Steps        []string            `json:"steps" validate:"max=6"`
	Requirements []string            `json:"requirements" validate:"max=5"`
	Networks     []string            `json:"networks" validate:"max=20"`
	IsHot        bool                `json:"isHot"`
	IsConfirmed  bool                `json:"isConfirmed"`
}

func (req *airdropRequest) normalize() {
	for _, f := range []*string{&req.Name, &req.Logo, &req.Description, &req.Action, &req.Reward, &req.StartDate} {
		*f = strings.TrimSpace(*f)
	}
	req.Steps = compact(req.Steps)
	req.Requirements = compact(req.Requirements)
	req.Networks = compact(req.Networks)
}

// compact trims every entry and drops the blank ones.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (req airdropRequest) airdrop(id string, now time.Time) models.Airdrop {
	a := models.Airdrop{
		ID:           id,
		Name:         req.Name,
		Logo:         req.Logo,
		Description:  req.Description,
		Action:       req.Action,
		Category:     models.AirdropCategory(req.Category),
		Status:       models.AirdropStatus(req.Status),
		Difficulty:   req.Difficulty,
		Reward:       req.Reward,
		StartDate:    req.StartDate,
		SocialLinks:  models.SocialLinks(req.SocialLinks),
		About:        req.About,
		Steps:        pq.StringArray(req.Steps),
		Requirements: pq.StringArray(req.Requirements),
		Networks:     pq.StringArray(req.Networks),
		IsHot:        req.IsHot,
		IsConfirmed:  req.IsConfirmed,
	}
	if a.Logo == "" {
		first, _ := utf8.DecodeRuneInString(a.Name)
		a.Logo = fmt.Sprintf("/placeholder.svg?height=48&width=48&text=%c", first)
	}
	if a.Reward == "" {
		a.Reward = "TBA"
	}
	if a.StartDate == "" {
		a.StartDate = now.UTC().Format(time.DateOnly)
	}
	return a
}

// decodeAirdrop writes the 400 response itself and reports false on failure.
func (h *Handler) decodeAirdrop(w http.ResponseWriter, r *http.Request) (airdropRequest, bool) {
	var req airdropRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request"})
		return req, false
	}
	req.normalize()
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": validationMessage(err)})
		return req, false
	}
	return req, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return "Invalid " + fe.Field()
	case "max":
		return fe.Field() + " is too long"
	default:
		return "Invalid " + fe.Field()
	}
}

func (h *Handler) CreateAirdropHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAirdrop(w, r)
	if !ok {
		return
	}

	created, err := h.Airdrops.CreateAirdrop(r.Context(), req.airdrop("", time.Now()))
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to create airdrop")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to create airdrop"})
		return
	}
	logging.Ctx(r.Context()).Info().Str("airdrop_id", created.ID).Str("name", created.Name).Msg("airdrop created")

	if created.Status == models.StatusConfirmed || created.IsConfirmed {
		h.announceAirdrop(r.Context(), created)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    created,
		"message": "Airdrop created successfully",
	})
}

// announceAirdrop posts a NEW notification for a confirmed airdrop. Failures
// are logged and never fail the surrounding request.
func (h *Handler) announceAirdrop(ctx context.Context, a models.Airdrop) {
	msg := fmt.Sprintf("New %s airdrop is now live. ", a.Name)
	if a.Reward != "" && a.Reward != "TBA" {
		msg += fmt.Sprintf("Earn up to %s!", a.Reward)
	} else {
		msg += "Join now to earn free tokens!"
	}

	n, err := h.Notifications.CreateNotification(ctx, models.Notification{
		Type:      models.NotificationNew,
		Title:     fmt.Sprintf("%s Airdrop Launched!", a.Name),
		Message:   msg,
		AirdropID: &a.ID,
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("airdrop_id", a.ID).Msg("failed to create airdrop notification")
		return
	}
	if h.Events != nil {
		if err := h.Events.Publish(ctx, n); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("notification_id", n.ID).Msg("failed to publish notification event")
		}
	}
}

func (h *Handler) UpdateAirdropHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := h.decodeAirdrop(w, r)
	if !ok {
		return
	}

	updated, err := h.Airdrops.UpdateAirdrop(r.Context(), req.airdrop(id, time.Now()))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Airdrop not found"})
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("airdrop_id", id).Msg("failed to update airdrop")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to update airdrop"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    updated,
		"message": "Airdrop updated successfully",
	})
}

func (h *Handler) DeleteAirdropHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.Airdrops.DeleteAirdrop(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Airdrop not found"})
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("airdrop_id", id).Msg("failed to delete airdrop")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to delete airdrop"})
		return
	}
	logging.Ctx(r.Context()).Info().Str("airdrop_id", id).Msg("airdrop deleted")

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Airdrop deleted successfully"})
}

func (h *Handler) BulkAirdropHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string   `json:"action"`
		IDs    []string `json:"ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request"})
		return
	}

	n, err := h.Airdrops.BulkAirdropAction(r.Context(), req.Action, req.IDs)
	if errors.Is(err, store.ErrInvalidBulkAction) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid bulk action"})
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("action", req.Action).Msg("bulk airdrop action failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to process request"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"affected": n,
		"message":  fmt.Sprintf("Successfully applied %s to %d airdrops", req.Action, n),
	})
}

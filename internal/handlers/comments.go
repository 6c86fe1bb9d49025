package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"airdrop-hunter-go/internal/logging"
	"airdrop-hunter-go/internal/models"
	"airdrop-hunter-go/internal/store"
)

// ListCommentsHandler returns an airdrop's comments with replies nested.
func (h *Handler) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	airdropID := r.URL.Query().Get("airdrop_id")
	if airdropID == "" {
		writeError(w, http.StatusBadRequest, "Airdrop ID is required")
		return
	}

	flat, err := h.Comments.ListComments(r.Context(), airdropID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("airdrop_id", airdropID).Msg("failed to fetch comments")
		writeError(w, http.StatusInternalServerError, "Failed to fetch comments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"comments": models.ThreadComments(flat)})
}

type createCommentRequest struct {
	AirdropID string `json:"airdrop_id"`
	Author    string `json:"author_name"`
	Content   string `json:"content"`
	ParentID  *int64 `json:"parent_id"`
}

func (h *Handler) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Author = strings.TrimSpace(req.Author)
	req.Content = strings.TrimSpace(req.Content)
	if req.AirdropID == "" || req.Author == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if utf8.RuneCountInString(req.Content) > 500 {
		writeError(w, http.StatusBadRequest, "Content must be between 1 and 500 characters")
		return
	}
	if utf8.RuneCountInString(req.Author) > 100 {
		writeError(w, http.StatusBadRequest, "Name must be between 1 and 100 characters")
		return
	}
	if req.ParentID != nil && *req.ParentID <= 0 {
		req.ParentID = nil
	}

	c, err := h.Comments.CreateComment(r.Context(), models.Comment{
		AirdropID: req.AirdropID,
		ParentID:  req.ParentID,
		Author:    req.Author,
		Content:   req.Content,
		IPAddress: h.Limiter.KeyFn(r),
	})
	if errors.Is(err, store.ErrParentNotFound) {
		writeError(w, http.StatusBadRequest, "Parent comment not found")
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to create comment")
		writeError(w, http.StatusInternalServerError, "Failed to create comment")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"comment": c})
}

// ReactCommentHandler toggles the caller's reaction on a comment.
func (h *Handler) ReactCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}
	var req struct {
		Type models.ReactionType `json:"reaction_type"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid reaction type")
		return
	}

	added, err := h.Reactions.ToggleReaction(r.Context(), id, h.Limiter.KeyFn(r), req.Type)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Int64("comment_id", id).Msg("failed to toggle reaction")
		writeError(w, http.StatusInternalServerError, "Failed to update reaction")
		return
	}

	resp := map[string]any{"message": "Reaction removed", "added": added}
	if added {
		resp["message"] = "Reaction added"
	}
	if counts, err := h.Reactions.ReactionCounts(r.Context(), id); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int64("comment_id", id).Msg("failed to count reactions")
	} else {
		resp["reactions"] = counts
	}
	writeJSON(w, http.StatusOK, resp)
}

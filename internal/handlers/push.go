package handlers

import (
	"errors"
	"net/http"
	"strings"

	"airdrop-hunter-go/internal/logging"
	"airdrop-hunter-go/internal/models"
	"airdrop-hunter-go/internal/push"
)

// GetVAPIDKeyHandler returns the public VAPID key
func (h *Handler) GetVAPIDKeyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.vapidKey})
}

type subscribeRequest struct {
	Subscription *struct {
		Endpoint string `json:"endpoint" validate:"required,url"`
		Keys     struct {
			P256dh string `json:"p256dh" validate:"required"`
			Auth   string `json:"auth" validate:"required"`
		} `json:"keys"`
	} `json:"subscription" validate:"required"`
	UserID string `json:"userId" validate:"max=255"`
}

// SubscribePushHandler saves a push subscription
func (h *Handler) SubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Subscription data required")
		return
	}

	sub, err := h.Subscriptions.UpsertSubscription(r.Context(), models.PushSubscription{
		UserID:   strings.TrimSpace(req.UserID),
		Endpoint: req.Subscription.Endpoint,
		P256dh:   req.Subscription.Keys.P256dh,
		Auth:     req.Subscription.Keys.Auth,
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to save subscription")
		writeError(w, http.StatusInternalServerError, "Failed to save subscription")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Subscription saved successfully",
		"data":    sub,
	})
}

// SendPushHandler broadcasts to every active subscriber. Callers need an admin
// session or a valid cron signature.
func (h *Handler) SendPushHandler(w http.ResponseWriter, r *http.Request) {
	if !h.isAdmin(r) && !validCronSignature(w, r, h.cronSecret) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var p push.Payload
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	res, err := h.Broadcaster.Broadcast(r.Context(), p)
	switch {
	case errors.Is(err, push.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, "Title and body are required")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("broadcast failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch subscriptions")
		return
	}

	msg := "Notifications sent successfully"
	if res.Total == 0 {
		msg = "No active subscriptions found"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": msg,
		"sent":    res.Sent,
		"failed":  res.Failed,
		"total":   res.Total,
	})
}

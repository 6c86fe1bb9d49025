package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"airdrop-hunter-go/internal/logging"
	"airdrop-hunter-go/internal/models"
	"airdrop-hunter-go/internal/store"
)

const sseHeartbeat = 30 * time.Second

func (h *Handler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	limit = min(limit, 100)
	unreadOnly := q.Get("unread_only") == "true"

	list, err := h.Notifications.ListNotifications(r.Context(), limit, unreadOnly)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to fetch notifications")
		writeError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}
	unread, err := h.Notifications.CountUnread(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to count unread notifications")
		writeError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": list,
		"unreadCount":   unread,
	})
}

// CreateNotificationHandler stores a notification and announces it to SSE
// listeners on every instance.
func (h *Handler) CreateNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type      models.NotificationType `json:"type"`
		Title     string                  `json:"title"`
		Message   string                  `json:"message"`
		AirdropID string                  `json:"airdrop_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Type == "" || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid notification type")
		return
	}

	n := models.Notification{Type: req.Type, Title: req.Title, Message: req.Message}
	if req.AirdropID != "" {
		n.AirdropID = &req.AirdropID
	}

	created, err := h.Notifications.CreateNotification(r.Context(), n)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to create notification")
		writeError(w, http.StatusInternalServerError, "Failed to create notification")
		return
	}

	if h.Events != nil {
		if err := h.Events.Publish(r.Context(), created); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Int64("notification_id", created.ID).Msg("failed to publish notification event")
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "notification": created})
}

func (h *Handler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	err := h.Notifications.MarkRead(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Int64("notification_id", id).Msg("failed to mark notification read")
		writeError(w, http.StatusInternalServerError, "Failed to mark notification as read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.MarkAllRead(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to mark all notifications read")
		writeError(w, http.StatusInternalServerError, "Failed to mark all notifications as read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": n})
}

func (h *Handler) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	err := h.Notifications.DeleteNotification(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Int64("notification_id", id).Msg("failed to delete notification")
		writeError(w, http.StatusInternalServerError, "Failed to delete notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Notification deleted successfully"})
}

// NotificationEventsHandler streams new notifications as server-sent events.
func (h *Handler) NotificationEventsHandler(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		writeError(w, http.StatusServiceUnavailable, "Event stream unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	pubsub := h.Events.Subscribe(r.Context())
	defer pubsub.Close()
	ch := pubsub.Channel()

	fmt.Fprintf(w, "data: %s\n\n", "connected")
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", msg.Payload)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

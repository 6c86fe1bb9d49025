package handlers

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gorilla/sessions"

	"airdrop-hunter-go/internal/models"
	"airdrop-hunter-go/internal/push"
	"airdrop-hunter-go/internal/ratelimit"
	"airdrop-hunter-go/internal/store"
)

// Broadcaster fans a payload out to every active push subscription.
type Broadcaster interface {
	Broadcast(ctx context.Context, p push.Payload) (push.Result, error)
}

// Deps are the collaborators a Handler serves requests with. Events may be
// nil, in which case the SSE stream is unavailable.
type Deps struct {
	Airdrops      store.AirdropStore
	Subscriptions store.SubscriptionStore
	Ratings       store.RatingStore
	Comments      store.CommentStore
	Reactions     store.ReactionStore
	Notifications store.NotificationStore
	Events        store.EventBus
	Broadcaster   Broadcaster
	Limiter       *ratelimit.Limiter
}

type Options struct {
	Admin          models.AdminCredentials
	SessionSecret  string
	SecureCookies  bool
	CronSecret     string
	VAPIDPublicKey string
}

type Handler struct {
	Deps

	admin      models.AdminCredentials
	sessions   sessions.Store
	cronSecret string
	vapidKey   string
	validate   *validator.Validate
}

func NewHandler(d Deps, opts Options) (*Handler, error) {
	if d.Limiter == nil {
		return nil, errors.New("handlers: limiter is required")
	}
	sessionStore, err := newSessionStore(opts.SessionSecret, opts.SecureCookies)
	if err != nil {
		return nil, err
	}
	validate := validator.New()
	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		Deps:       d,
		admin:      opts.Admin,
		sessions:   sessionStore,
		cronSecret: opts.CronSecret,
		vapidKey:   opts.VAPIDPublicKey,
		validate:   validate,
	}, nil
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

const maxBodyBytes = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

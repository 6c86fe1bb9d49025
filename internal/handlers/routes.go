package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"airdrop-hunter-go/internal/logging"
	"airdrop-hunter-go/internal/ratelimit"
)

// Per-endpoint budgets. Scopes keep each endpoint's accounting separate.
var (
	RatingReadRule = ratelimit.Rule{
		Scope:  "ratings:read",
		Limit:  30,
		Window: time.Minute,
	}
	RatingWriteRule = ratelimit.Rule{
		Scope:   "ratings:write",
		Limit:   5,
		Window:  time.Minute,
		Message: "Too many rating submissions. Please try again later.",
	}
	CommentWriteRule = ratelimit.Rule{
		Scope:   "comments",
		Limit:   5,
		Window:  time.Hour,
		Message: "Rate limit exceeded. Please wait before commenting again.",
	}
	ReactionRule = ratelimit.Rule{
		Scope:   "comments:react",
		Limit:   30,
		Window:  time.Minute,
		Message: "Too many reactions. Please slow down.",
	}
	AdminLoginRule = ratelimit.Rule{
		Scope:   "admin:login",
		Limit:   10,
		Window:  15 * time.Minute,
		Message: "Too many login attempts. Please try again later.",
	}
)

type RouterConfig struct {
	AllowedOrigins []string
	// GlobalRateLimit is a coarse per-client ceiling per minute across /api.
	// 0 disables it.
	GlobalRateLimit int
}

// Routes builds the HTTP handler for the whole service.
func (h *Handler) Routes(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(logging.Middleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", cronSignatureHeader},
			ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		if cfg.GlobalRateLimit > 0 {
			r.Use(httprate.Limit(cfg.GlobalRateLimit, time.Minute,
				httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
					return h.Limiter.KeyFn(r), nil
				}),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
				}),
			))
		}

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotificationsHandler)
			r.With(h.AdminOnly).Post("/", h.CreateNotificationHandler)
			r.Get("/vapid-key", h.GetVAPIDKeyHandler)
			r.Post("/subscribe", h.SubscribePushHandler)
			r.Post("/send", h.SendPushHandler)
			r.Get("/events", h.NotificationEventsHandler)
			r.Put("/mark-all-read", h.MarkAllReadHandler)
			r.Post("/{id}/read", h.MarkReadHandler)
			r.With(h.AdminOnly).Delete("/{id}", h.DeleteNotificationHandler)
		})

		r.Get("/airdrops", h.ListAirdropsHandler)
		r.Get("/airdrops/{id}", h.GetAirdropHandler)

		r.Route("/airdrops/{id}/rating", func(r chi.Router) {
			r.With(h.Limiter.Middleware(RatingReadRule)).Get("/", h.GetRatingHandler)
			r.With(h.Limiter.Middleware(RatingReadRule)).Get("/history", h.RatingHistoryHandler)
			r.With(h.Limiter.Middleware(RatingWriteRule)).Post("/", h.SubmitRatingHandler)
			r.With(h.Limiter.Middleware(RatingWriteRule)).Put("/", h.SubmitRatingHandler)
		})

		r.Get("/comments", h.ListCommentsHandler)
		r.With(h.Limiter.Middleware(CommentWriteRule)).Post("/comments", h.CreateCommentHandler)
		r.With(h.Limiter.Middleware(ReactionRule)).Post("/comments/{id}/react", h.ReactCommentHandler)

		r.Route("/admin/auth", func(r chi.Router) {
			r.With(h.Limiter.Middleware(AdminLoginRule)).Post("/login", h.LoginHandler)
			r.Post("/logout", h.LogoutHandler)
			r.Get("/check", h.CheckAuthHandler)
		})

		r.Route("/admin/airdrops", func(r chi.Router) {
			r.Use(h.AdminOnly)
			r.Get("/", h.AdminListAirdropsHandler)
			r.Post("/", h.CreateAirdropHandler)
			r.Post("/bulk", h.BulkAirdropHandler)
			r.Put("/{id}", h.UpdateAirdropHandler)
			r.Delete("/{id}", h.DeleteAirdropHandler)
		})
	})

	return r
}

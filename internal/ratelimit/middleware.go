package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"airdrop-hunter-go/internal/logging"
	"airdrop-hunter-go/internal/metrics"
)

// KeyFunc derives the client identifier from a request.
type KeyFunc func(r *http.Request) string

// ClientKey returns a KeyFunc that prefers the first X-Forwarded-For hop and
// X-Real-IP when the service runs behind a trusted proxy, then the peer
// address, and finally AnonymousKey.
func ClientKey(trustProxy bool) KeyFunc {
	return func(r *http.Request) string {
		if trustProxy {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
			if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
				return ip
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return AnonymousKey
	}
}

// Limiter applies Rules to HTTP requests against a shared Store.
type Limiter struct {
	Store Store
	KeyFn KeyFunc
}

func NewLimiter(store Store, keyFn KeyFunc) *Limiter {
	if keyFn == nil {
		keyFn = ClientKey(false)
	}
	return &Limiter{Store: store, KeyFn: keyFn}
}

// Allow checks rule for the client behind r and records the action if allowed.
func (l *Limiter) Allow(r *http.Request, rule Rule) (bool, error) {
	ok, err := l.Store.Allow(r.Context(), rule.Key(l.KeyFn(r)), rule.Limit, rule.Window)

	decision := "allowed"
	switch {
	case err != nil:
		decision = "error"
	case !ok:
		decision = "rejected"
	}
	metrics.RateLimitDecisions.WithLabelValues(rule.Scope, decision).Inc()
	return ok, err
}

// Middleware rejects requests over rule with 429 before next runs.
func (l *Limiter) Middleware(rule Rule) func(http.Handler) http.Handler {
	msg := rule.Message
	if msg == "" {
		msg = "Too many requests. Please try again later."
	}
	retryAfter := strconv.Itoa(int(math.Ceil(rule.Window.Seconds())))
	limit := strconv.Itoa(rule.Limit)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r, rule)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Str("scope", rule.Scope).Msg("rate limit check failed")
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			w.Header().Set("X-RateLimit-Limit", limit)
			if !ok {
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, http.StatusTooManyRequests, msg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientKey(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		remote     string
		headers    map[string]string
		want       string
	}{
		{name: "remote host", remote: "10.0.0.9:5555", want: "10.0.0.9"},
		{name: "xff ignored when untrusted", remote: "10.0.0.9:5555", headers: map[string]string{"X-Forwarded-For": "1.2.3.4"}, want: "10.0.0.9"},
		{name: "xff first hop", trustProxy: true, remote: "10.0.0.9:5555", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, want: "1.2.3.4"},
		{name: "x-real-ip", trustProxy: true, remote: "10.0.0.9:5555", headers: map[string]string{"X-Real-IP": "9.9.9.9"}, want: "9.9.9.9"},
		{name: "unparseable remote kept", remote: "pipe", want: "pipe"},
		{name: "anonymous", remote: "", want: AnonymousKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientKey(tt.trustProxy)(r); got != tt.want {
				t.Fatalf("ClientKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRule_KeyNamespacesScope(t *testing.T) {
	r := Rule{Scope: "ratings:write"}
	if got := r.Key("1.2.3.4"); got != "ratings:write:1.2.3.4" {
		t.Fatalf("Key() = %q", got)
	}
	if got := (Rule{}).Key(" "); got != AnonymousKey {
		t.Fatalf("Key() = %q, want %q", got, AnonymousKey)
	}
}

func TestLimiterMiddleware_AllowsThenRejects(t *testing.T) {
	lim := NewLimiter(NewMemoryStore(WithClock(newClock().Now)), ClientKey(false))
	rule := Rule{Scope: "ratings:write", Limit: 2, Window: time.Minute, Message: "Too many rating submissions. Please try again later."}

	calls := 0
	h := lim.Middleware(rule)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodPost, "http://example/api/airdrops/1/rating", nil)
		r.RemoteAddr = "1.2.3.4:1000"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	r := httptest.NewRequest(http.MethodPost, "http://example/api/airdrops/1/rating", nil)
	r.RemoteAddr = "1.2.3.4:1000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After=60, got %q", got)
	}
	if !strings.Contains(w.Body.String(), "Too many rating submissions") {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if calls != 2 {
		t.Fatalf("expected next called twice, got %d", calls)
	}
}

func TestLimiter_ScopesDoNotShareBudget(t *testing.T) {
	lim := NewLimiter(NewMemoryStore(WithClock(newClock().Now)), ClientKey(false))
	ratings := Rule{Scope: "ratings:write", Limit: 1, Window: time.Minute}
	comments := Rule{Scope: "comments", Limit: 1, Window: time.Hour}

	r := httptest.NewRequest(http.MethodPost, "http://example/", nil)
	r.RemoteAddr = "1.2.3.4:1000"

	if ok, _ := lim.Allow(r, ratings); !ok {
		t.Fatalf("expected ratings allowed")
	}
	if ok, _ := lim.Allow(r, ratings); ok {
		t.Fatalf("expected ratings exhausted")
	}
	if ok, _ := lim.Allow(r, comments); !ok {
		t.Fatalf("expected comments budget untouched")
	}
}

type errStore struct{}

func (errStore) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("store down")
}

func TestLimiterMiddleware_StoreErrorIs500(t *testing.T) {
	lim := NewLimiter(errStore{}, nil)
	h := lim.Middleware(Rule{Scope: "x", Limit: 1, Window: time.Second})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next must not run")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

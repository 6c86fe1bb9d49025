package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMiddleware_LogsRequestWithID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	defer Init(Config{})

	var sawLogger bool
	h := chimiddleware.RequestID(Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Ctx(r.Context()).Info().Msg("inside")
		sawLogger = true
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !sawLogger {
		t.Fatalf("handler not called")
	}
	out := buf.String()
	if !strings.Contains(out, `"request_id"`) {
		t.Fatalf("expected request_id in log output, got %s", out)
	}
	if !strings.Contains(out, `"status":418`) {
		t.Fatalf("expected status 418 in log output, got %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("expected warn level for 4xx, got %s", out)
	}
}

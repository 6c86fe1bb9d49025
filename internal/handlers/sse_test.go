package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"airdrop-hunter-go/internal/models"
	"airdrop-hunter-go/internal/store"
)

func TestNotificationEvents_Stream(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	env := newTestEnv(t, Options{})
	events := store.NewRedisEvents(rdb)
	env.h.Events = events

	srv := httptest.NewServer(env.h.Routes(RouterConfig{AllowedOrigins: []string{"*"}}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/notifications/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	if first := <-lines; first != "data: connected" {
		t.Fatalf("first line = %q", first)
	}

	// The subscription may not be registered yet, so publish until it lands.
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed early")
			}
			if strings.HasPrefix(line, "data: ") && strings.Contains(line, "Fresh drop") {
				return
			}
		case <-tick.C:
			if err := events.Publish(ctx, models.Notification{ID: 1, Type: models.NotificationNew, Title: "Fresh drop"}); err != nil {
				t.Fatalf("publish: %v", err)
			}
		case <-ctx.Done():
			t.Fatal("no notification event received")
		}
	}
}

func TestNotificationEvents_Unavailable(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.h.Events = nil

	w := env.do(t, http.MethodGet, "/api/notifications/events", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", w.Code)
	}
}

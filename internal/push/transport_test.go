package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"airdrop-hunter-go/internal/models"
)

func browserSubscription(t *testing.T, endpoint string) models.PushSubscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		t.Fatalf("auth: %v", err)
	}
	return models.PushSubscription{
		ID:       7,
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(auth),
		Active:   true,
	}
}

func TestLoadVAPIDKeys(t *testing.T) {
	keys, generated, err := LoadVAPIDKeys("pub", "priv")
	if err != nil || generated || keys.Public != "pub" || keys.Private != "priv" {
		t.Fatalf("configured keys not used: %+v %v %v", keys, generated, err)
	}

	keys, generated, err = LoadVAPIDKeys("", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !generated || keys.Public == "" || keys.Private == "" {
		t.Fatalf("expected generated pair, got %+v", keys)
	}
}

func TestWebPushTransport_StatusMapping(t *testing.T) {
	keys, _, err := LoadVAPIDKeys("", "")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}

	tests := []struct {
		status  int
		wantErr bool
		gone    bool
	}{
		{http.StatusCreated, false, false},
		{http.StatusGone, true, true},
		{http.StatusNotFound, true, true},
		{http.StatusInternalServerError, true, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var gotAuth, gotTTL, gotEncoding string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotTTL = r.Header.Get("TTL")
				gotEncoding = r.Header.Get("Content-Encoding")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("detail"))
			}))
			defer srv.Close()

			tr := NewWebPushTransport(keys, "mailto:ops@example.com", 3600, 5*time.Second)
			err := tr.Send(context.Background(), browserSubscription(t, srv.URL+"/push/abc"), []byte(`{"title":"T"}`))

			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrSubscriptionGone); got != tt.gone {
				t.Fatalf("gone = %v, want %v", got, tt.gone)
			}
			if !strings.HasPrefix(gotAuth, "vapid ") {
				t.Errorf("expected VAPID authorization, got %q", gotAuth)
			}
			if gotTTL != "3600" {
				t.Errorf("TTL header = %q", gotTTL)
			}
			if gotEncoding != "aes128gcm" {
				t.Errorf("Content-Encoding = %q", gotEncoding)
			}
		})
	}
}

func TestWebPushTransport_Timeout(t *testing.T) {
	keys, _, _ := LoadVAPIDKeys("", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	tr := NewWebPushTransport(keys, "ops@example.com", 60, 50*time.Millisecond)
	err := tr.Send(context.Background(), browserSubscription(t, srv.URL), []byte("x"))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if errors.Is(err, ErrSubscriptionGone) {
		t.Fatal("timeout must not be classified as gone")
	}
}

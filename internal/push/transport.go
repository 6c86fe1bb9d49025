package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"airdrop-hunter-go/internal/models"
)

// ErrSubscriptionGone matches delivery errors for endpoints the push service
// reports as permanently unreachable.
var ErrSubscriptionGone = errors.New("push subscription gone")

// DeliveryError is a non-2xx answer from a push service.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("push service responded %d", e.StatusCode)
	}
	return fmt.Sprintf("push service responded %d: %s", e.StatusCode, e.Body)
}

// Is reports 404 and 410 as ErrSubscriptionGone (RFC 8030 §7.3).
func (e *DeliveryError) Is(target error) bool {
	return target == ErrSubscriptionGone &&
		(e.StatusCode == http.StatusGone || e.StatusCode == http.StatusNotFound)
}

// Transport delivers one encrypted payload to one subscription.
type Transport interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) error
}

// VAPIDKeys identify this server to push services.
type VAPIDKeys struct {
	Public  string
	Private string
}

// LoadVAPIDKeys returns the configured pair or generates a fresh one. A
// generated pair only lives as long as the process, so existing browser
// subscriptions stop working after a restart unless it is persisted.
func LoadVAPIDKeys(public, private string) (VAPIDKeys, bool, error) {
	if public != "" && private != "" {
		return VAPIDKeys{Public: public, Private: private}, false, nil
	}

	priv, pub, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return VAPIDKeys{}, false, fmt.Errorf("generate VAPID keys: %w", err)
	}
	return VAPIDKeys{Public: pub, Private: priv}, true, nil
}

// WebPushTransport sends through github.com/SherClockHolmes/webpush-go.
type WebPushTransport struct {
	keys    VAPIDKeys
	subject string
	ttl     int
	client  *http.Client
}

// NewWebPushTransport bounds each delivery attempt by timeout.
func NewWebPushTransport(keys VAPIDKeys, subject string, ttl int, timeout time.Duration) *WebPushTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebPushTransport{
		keys: keys,
		// webpush-go adds the mailto: scheme itself for non-https subscribers.
		subject: strings.TrimPrefix(subject, "mailto:"),
		ttl:     ttl,
		client:  &http.Client{Timeout: timeout},
	}
}

func (t *WebPushTransport) Send(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	s := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, s, &webpush.Options{
		HTTPClient:      t.client,
		Subscriber:      t.subject,
		VAPIDPublicKey:  t.keys.Public,
		VAPIDPrivateKey: t.keys.Private,
		TTL:             t.ttl,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

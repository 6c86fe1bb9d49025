package push

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidPayload is returned when a payload lacks a title or body.
var ErrInvalidPayload = errors.New("title and body are required")

const (
	DefaultIcon  = "/android-chrome-192x192.png"
	DefaultBadge = "/android-chrome-96x96.png"
	DefaultURL   = "/"
)

type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// Payload is the JSON document the service worker receives.
type Payload struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Icon      string   `json:"icon"`
	Badge     string   `json:"badge"`
	URL       string   `json:"url"`
	Timestamp int64    `json:"timestamp"`
	Actions   []Action `json:"actions"`
}

func DefaultActions() []Action {
	return []Action{
		{Action: "view", Title: "View Details", Icon: DefaultBadge},
		{Action: "dismiss", Title: "Dismiss", Icon: DefaultBadge},
	}
}

func (p Payload) Validate() error {
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Body) == "" {
		return ErrInvalidPayload
	}
	return nil
}

// WithDefaults fills optional fields. The timestamp is always set to now and
// the action list is always the fixed view/dismiss pair.
func (p Payload) WithDefaults(now time.Time) Payload {
	if p.Icon == "" {
		p.Icon = DefaultIcon
	}
	if p.Badge == "" {
		p.Badge = DefaultBadge
	}
	if p.URL == "" {
		p.URL = DefaultURL
	}
	p.Timestamp = now.UnixMilli()
	p.Actions = DefaultActions()
	return p
}

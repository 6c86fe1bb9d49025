// Package ratelimit implements sliding-window request limiting keyed by client.
//
// A Store answers a single question: may key perform one more action given at
// most limit actions per trailing window? MemoryStore keeps the retained log
// in process; RedisStore keeps it in a sorted set so several instances share
// one budget; FallbackStore puts a circuit breaker in front of a shared store
// and degrades to a local one when it is unreachable.
//
// HTTP callers go through Limiter, which derives the client key from the
// request and namespaces it per Rule scope so that, for example, comment and
// rating budgets never share accounting.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

// AnonymousKey is used when no client identifier can be derived.
const AnonymousKey = "anonymous"

// Store records and checks actions per key within a trailing window.
//
// Allow reports whether one more action is permitted for key and, if so,
// records it. A rejected action is not recorded.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Rule is a named (limit, window) pair applied to one endpoint.
type Rule struct {
	Scope   string
	Limit   int
	Window  time.Duration
	Message string
}

// Key namespaces a client key with the rule scope.
func (r Rule) Key(clientKey string) string {
	clientKey = normalizeKey(clientKey)
	if r.Scope == "" {
		return clientKey
	}
	return r.Scope + ":" + clientKey
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return AnonymousKey
	}
	return key
}

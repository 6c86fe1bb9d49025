package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"airdrop-hunter-go/internal/logging"
	"airdrop-hunter-go/internal/metrics"
)

// FallbackStore consults primary through a circuit breaker and answers from
// fallback whenever primary errors or the breaker is open. Budgets recorded
// in fallback are local to this process.
type FallbackStore struct {
	primary  Store
	fallback Store
	cb       *gobreaker.CircuitBreaker[bool]
}

// NewFallbackStore trips after failures consecutive errors and probes primary
// again after cooldown.
func NewFallbackStore(name string, primary, fallback Store, failures uint32, cooldown time.Duration) *FallbackStore {
	if failures == 0 {
		failures = 3
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A caller giving up says nothing about the backend's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("rate limit backend breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &FallbackStore{primary: primary, fallback: fallback, cb: cb}
}

// Allow implements Store. It only returns an error when fallback does.
func (s *FallbackStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ok, err := s.cb.Execute(func() (bool, error) {
		return s.primary.Allow(ctx, key, limit, window)
	})
	if err == nil {
		return ok, nil
	}

	logging.Ctx(ctx).Debug().Err(err).Msg("rate limit primary unavailable, using fallback")
	return s.fallback.Allow(ctx, key, limit, window)
}

// State reports the breaker state.
func (s *FallbackStore) State() gobreaker.State {
	return s.cb.State()
}

func stateValue(st gobreaker.State) float64 {
	switch st {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

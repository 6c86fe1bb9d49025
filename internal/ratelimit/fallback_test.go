package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

type failingStore struct{ calls int }

func (s *failingStore) Allow(context.Context, string, int, time.Duration) (bool, error) {
	s.calls++
	return false, errors.New("connection refused")
}

type staticStore struct{ allow bool }

func (s staticStore) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return s.allow, nil
}

func TestFallbackStore_UsesPrimaryWhenHealthy(t *testing.T) {
	s := NewFallbackStore("test-healthy", staticStore{allow: false}, staticStore{allow: true}, 3, time.Minute)

	ok, err := s.Allow(context.Background(), "k", 1, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected primary decision (rejected)")
	}
}

func TestFallbackStore_FallsBackAndOpens(t *testing.T) {
	primary := &failingStore{}
	local := NewMemoryStore(WithClock(newClock().Now))
	s := NewFallbackStore("test-failing", primary, local, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := s.Allow(ctx, "k", 3, time.Minute)
		if err != nil {
			t.Fatalf("call %d: expected fallback to absorb error, got %v", i, err)
		}
		if !ok {
			t.Fatalf("call %d: expected allowed by fallback", i)
		}
	}
	if ok, _ := s.Allow(ctx, "k", 3, time.Minute); ok {
		t.Fatalf("expected fallback budget to be enforced")
	}

	if s.State() != gobreaker.StateOpen {
		t.Fatalf("expected breaker open, got %s", s.State())
	}
	if primary.calls != 2 {
		t.Fatalf("expected primary skipped once open, got %d calls", primary.calls)
	}
}

func TestFallbackStore_CancelledCallersDoNotTrip(t *testing.T) {
	clock := newClock()
	primary, _ := newRedisStore(t, clock)
	local := NewMemoryStore(WithClock(clock.Now))
	s := NewFallbackStore("test-cancelled", primary, local, 3, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		if _, err := s.Allow(ctx, "k", 10, time.Minute); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	if s.State() != gobreaker.StateClosed {
		t.Fatalf("expected breaker closed after cancelled calls, got %s", s.State())
	}
	ok, err := s.Allow(context.Background(), "k", 10, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected healthy primary to allow, got ok=%v err=%v", ok, err)
	}
}

func TestFallbackStore_DeadlineDoesNotTrip(t *testing.T) {
	primary := &ctxErrStore{err: context.DeadlineExceeded}
	s := NewFallbackStore("test-deadline", primary, staticStore{allow: true}, 1, time.Minute)

	for i := 0; i < 3; i++ {
		if ok, err := s.Allow(context.Background(), "k", 1, time.Minute); err != nil || !ok {
			t.Fatalf("call %d: expected fallback decision, got ok=%v err=%v", i, ok, err)
		}
	}
	if s.State() != gobreaker.StateClosed {
		t.Fatalf("expected breaker closed, got %s", s.State())
	}
	if primary.calls != 3 {
		t.Fatalf("expected primary consulted every call, got %d", primary.calls)
	}
}

type ctxErrStore struct {
	err   error
	calls int
}

func (s *ctxErrStore) Allow(context.Context, string, int, time.Duration) (bool, error) {
	s.calls++
	return false, fmt.Errorf("redis sliding window: %w", s.err)
}

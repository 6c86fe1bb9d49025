package ratelimit

import (
	"context"
	"sync"
	"time"

	"airdrop-hunter-go/internal/logging"
	"airdrop-hunter-go/internal/metrics"
)

// MemoryStore is a process-local retained-log limiter. Timestamps are kept in
// milliseconds, oldest first. Entries are pruned lazily on Allow and eagerly by
// Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]int64

	now        func() time.Time
	retention  time.Duration
	sweepEvery time.Duration
}

type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithRetention sets how long a timestamp survives a sweep. It must be at
// least as long as the largest window in use.
func WithRetention(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.retention = d }
}

func WithSweepEvery(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.sweepEvery = d }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:    make(map[string][]int64),
		now:        time.Now,
		retention:  time.Hour,
		sweepEvery: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow implements Store. It never returns an error.
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	key = normalizeKey(key)
	now := s.now().UnixMilli()
	cutoff := now - window.Milliseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	valid := prune(s.entries[key], cutoff)
	if len(valid) >= limit {
		s.store(key, valid)
		return false, nil
	}

	s.entries[key] = append(valid, now)
	return true, nil
}

func (s *MemoryStore) store(key string, ts []int64) {
	if len(ts) == 0 {
		delete(s.entries, key)
		return
	}
	s.entries[key] = ts
}

// prune drops timestamps at or before cutoff. ts is sorted ascending, so the
// surviving tail is reused in place.
func prune(ts []int64, cutoff int64) []int64 {
	i := 0
	for i < len(ts) && ts[i] <= cutoff {
		i++
	}
	return ts[i:]
}

// Sweep discards timestamps older than the retention bound and forgets keys
// left empty. It returns the number of keys removed.
func (s *MemoryStore) Sweep() int {
	cutoff := s.now().Add(-s.retention).UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, ts := range s.entries {
		valid := prune(ts, cutoff)
		if len(valid) == 0 {
			delete(s.entries, k)
			removed++
			continue
		}
		s.entries[k] = valid
	}
	metrics.RateLimitKeys.Set(float64(len(s.entries)))
	return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor sweeps on a ticker until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context) {
	if s.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.Sweep(); n > 0 {
					logging.Debug().Int("removed", n).Msg("rate limit sweep")
				}
			}
		}
	}()
}

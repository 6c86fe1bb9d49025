package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript prunes, counts and conditionally records in one round
// trip so concurrent instances cannot both take the last slot.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
	return 0
end
redis.call('ZADD', key, ARGV[1], ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// RedisStore keeps each key's retained log in a sorted set scored by
// millisecond timestamp. Keys expire on their own one window after the last
// accepted action, so no sweep is needed.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

type RedisOption func(*RedisStore)

func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) { s.now = now }
}

func NewRedisStore(rdb redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "ratelimit",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow implements Store.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := s.now().UnixMilli()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, s.rdb,
		[]string{s.prefix + ":" + normalizeKey(key)},
		now, window.Milliseconds(), limit, member,
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis sliding window: %w", err)
	}
	return res == 1, nil
}

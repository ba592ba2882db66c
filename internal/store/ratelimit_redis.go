package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/qr-tracker/internal/ratelimit"
)

// recordScript increments the counter and starts the window on the first hit.
// It returns the count and the remaining window in milliseconds.
var recordScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store.
// Windows are shared by every instance using the same Redis and survive restarts.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "ratelimit:",
		now:    time.Now,
	}
}

func (s *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (ratelimit.Window, error) {
	values, err := recordScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return ratelimit.Window{}, err
	}

	if len(values) != 2 {
		return ratelimit.Window{}, fmt.Errorf("unexpected rate limit script reply: %v", values)
	}

	return ratelimit.Window{
		Count:   values[0],
		ResetAt: s.now().Add(time.Duration(values[1]) * time.Millisecond),
	}, nil
}

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// SlidingWindow is a per-client sliding-window rate limiter backed by
// a Redis sorted set. State lives in Redis, so the window survives
// across requests (and across processes behind the same Redis) but is
// cleared on a Redis restart.
type SlidingWindow struct {
	redis  *redis.Client
	limit  int64         // Maximum admitted requests per window
	window time.Duration // Rolling window size
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(redisClient *redis.Client, limit int64, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// Allow checks whether the client may perform the action and, if so,
// records the request in the window. The prune/count/admit sequence
// runs as one Lua script so concurrent requests cannot both slip
// under the limit.
func (sw *SlidingWindow) Allow(ctx context.Context, clientID, action string) (bool, error) {
	key := fmt.Sprintf("rate_limit:%s:%s", clientID, action)

	luaScript := `
		local key = KEYS[1]
		local limit = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])
		local now = tonumber(ARGV[3])
		local member = ARGV[4]

		-- Drop entries that have slid out of the window
		redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

		local count = redis.call('ZCARD', key)
		if count < limit then
			redis.call('ZADD', key, now, member)
			redis.call('PEXPIRE', key, window)
			return 1
		end

		redis.call('PEXPIRE', key, window)
		return 0
	`

	now := time.Now().UnixMilli()
	result, err := sw.redis.Eval(ctx, luaScript, []string{key},
		sw.limit, sw.window.Milliseconds(), now, uuid.NewString()).Result()

	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from rate limit script")
	}

	return allowed == 1, nil
}

// GetRemaining returns how many requests the client has left in the
// current window.
func (sw *SlidingWindow) GetRemaining(ctx context.Context, clientID, action string) (int64, error) {
	key := fmt.Sprintf("rate_limit:%s:%s", clientID, action)

	luaScript := `
		local key = KEYS[1]
		local limit = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])
		local now = tonumber(ARGV[3])

		redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

		local count = redis.call('ZCARD', key)
		if count >= limit then
			return 0
		end
		return limit - count
	`

	now := time.Now().UnixMilli()
	result, err := sw.redis.Eval(ctx, luaScript, []string{key},
		sw.limit, sw.window.Milliseconds(), now).Result()

	if err != nil {
		return 0, fmt.Errorf("failed to get remaining requests: %w", err)
	}

	remaining, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from remaining requests script")
	}

	return remaining, nil
}

// Reset clears the rate limit window for a specific client action
func (sw *SlidingWindow) Reset(ctx context.Context, clientID, action string) error {
	key := fmt.Sprintf("rate_limit:%s:%s", clientID, action)
	return sw.redis.Del(ctx, key).Err()
}

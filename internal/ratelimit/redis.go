package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares counters across instances through Redis. It relies on
// EXPIRE NX and therefore needs Redis 7.0 or later.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int
	period time.Duration
	prefix string
}

// NewRedisLimiter allows limit hits per key every period.
func NewRedisLimiter(client redis.Cmdable, limit int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, period: period, prefix: "ratelimit:"}
}

// Allow increments the key's counter, starting its expiry on the first hit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := l.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, l.period)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	resetIn := ttl.Val()
	if resetIn <= 0 {
		resetIn = l.period
	}
	return decide(l.limit, int(incr.Val()), resetIn), nil
}

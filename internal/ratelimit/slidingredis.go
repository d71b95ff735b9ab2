package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter is a sliding-window rate limiter over a Redis sorted set per key.
// Each hit is one member scored by its nanosecond timestamp; stale members
// are pruned on every call, so the window slides continuously instead of
// resetting on a fixed boundary.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow records one hit for key and reports whether the caller is still
// inside the limit. A nil client disables limiting rather than blocking.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	now := time.Now()
	until := now.Add(window)
	cutoff := float64(now.Add(-window).UnixNano())

	redisKey := l.Prefix + key
	member := key + ":" + uuid.NewString()

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, until, err
	}

	hits := int(countCmd.Val())
	remaining = max - hits
	if remaining < 0 {
		remaining = 0
	}
	return hits <= max, remaining, until, nil
}

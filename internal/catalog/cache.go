package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps rendered menu payloads in Redis so the hot read path
// skips Postgres. Everything degrades to a no-op when no client is
// wired, which keeps the service usable in tests and single-node
// setups.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) disabled() bool {
	return c == nil || c.client == nil
}

// GetJSON loads the payload stored under key into dst. The boolean is
// false on a miss; a corrupt payload is surfaced as an error rather
// than silently treated as a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c.disabled() || key == "" {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key for the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c.disabled() || key == "" || c.ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate drops keys after a menu mutation so the next read rebuilds
// from Postgres.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c.disabled() || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

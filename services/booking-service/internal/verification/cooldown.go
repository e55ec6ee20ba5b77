package verification

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown limits how often a code may be sent to one phone.
type Cooldown interface {
	// Acquire reports false while a previous acquisition for key is still live.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops a live acquisition so the next Acquire succeeds.
	Release(ctx context.Context, key string) error
}

type RedisCooldown struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisCooldown(rdb redis.Cmdable, prefix string) *RedisCooldown {
	if prefix == "" {
		prefix = "verify:cooldown:"
	}
	return &RedisCooldown{rdb: rdb, prefix: prefix}
}

func (c *RedisCooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, c.prefix+key, "1", ttl).Result()
}

func (c *RedisCooldown) Release(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.prefix+key).Err()
}

// MemoryCooldown serves a single process when Redis is not configured.
type MemoryCooldown struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{until: make(map[string]time.Time), now: time.Now}
}

func (c *MemoryCooldown) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if until, ok := c.until[key]; ok && now.Before(until) {
		return false, nil
	}
	c.until[key] = now.Add(ttl)
	if len(c.until) > 10000 {
		for k, until := range c.until {
			if !now.Before(until) {
				delete(c.until, k)
			}
		}
	}
	return true, nil
}

func (c *MemoryCooldown) Release(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.until, key)
	c.mu.Unlock()
	return nil
}

// NoCooldown never blocks.
type NoCooldown struct{}

func (NoCooldown) Acquire(context.Context, string, time.Duration) (bool, error) { return true, nil }

func (NoCooldown) Release(context.Context, string) error { return nil }

package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores a year's holidays for a bounded time.
type Cache interface {
	Get(ctx context.Context, year int) (map[string]string, bool, error)
	Set(ctx context.Context, year int, holidays map[string]string, ttl time.Duration) error
}

type memoryEntry struct {
	holidays  map[string]string
	expiresAt time.Time
}

// MemoryCache keeps entries in process.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[int]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[int]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, year int) (map[string]string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[year]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.holidays, true, nil
}

func (c *MemoryCache) Set(_ context.Context, year int, holidays map[string]string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[year] = memoryEntry{holidays: holidays, expiresAt: c.now().Add(ttl)}
	return nil
}

// RedisCache shares entries between API replicas.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "attendance:holidays:"}
}

func (c *RedisCache) key(year int) string {
	return fmt.Sprintf("%s%d", c.prefix, year)
}

func (c *RedisCache) Get(ctx context.Context, year int) (map[string]string, bool, error) {
	data, err := c.client.Get(ctx, c.key(year)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get holidays: %w", err)
	}

	var holidays map[string]string
	if err := json.Unmarshal(data, &holidays); err != nil {
		return nil, false, fmt.Errorf("decode cached holidays: %w", err)
	}
	return holidays, true, nil
}

func (c *RedisCache) Set(ctx context.Context, year int, holidays map[string]string, ttl time.Duration) error {
	data, err := json.Marshal(holidays)
	if err != nil {
		return fmt.Errorf("encode holidays: %w", err)
	}
	if err := c.client.Set(ctx, c.key(year), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set holidays: %w", err)
	}
	return nil
}

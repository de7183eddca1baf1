package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

type memoryCache struct {
	cache *bigcache.BigCache
}

// NewMemoryCache creates an in-process cache. Every entry lives for ttl;
// the per-call expiration passed to Set is ignored.
func NewMemoryCache(ttl time.Duration) (Cache, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl
	cfg.Verbose = false
	c, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &memoryCache{cache: c}, nil
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	buf, err := m.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value string, _ time.Duration) error {
	return m.cache.Set(key, []byte(value))
}

func (m *memoryCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return setJSON(ctx, m, key, value, expiration)
}

func (m *memoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	return getJSON(ctx, m, key, dest)
}

func (m *memoryCache) Close() error {
	return m.cache.Close()
}

package cachestore

import (
	"context"
	"path/filepath"
	"sync"
	"time"
)

type entry struct {
	value   []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// memoryCache is a mutex-guarded in-process map with lazy expiry and a
// background sweep, matching the logistics service's memory backend shape.
type memoryCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	maxEntries int
	hits       int64
	misses     int64
	stopSweep  chan struct{}
}

func newMemoryCache(opts *Options) *memoryCache {
	c := &memoryCache{
		entries:    make(map[string]entry),
		defaultTTL: opts.DefaultTTL,
		maxEntries: opts.MaxEntries,
		stopSweep:  make(chan struct{}),
	}
	if opts.CleanupInterval > 0 {
		go c.sweep(opts.CleanupInterval)
	}
	return c
}

func (c *memoryCache) sweep(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.entries {
				if e.expired(now) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopSweep:
			return
		}
	}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, ErrKeyNotFound
	}
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return e.value, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = entry{value: value, expires: expires}
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	return ok && !e.expired(time.Now()), nil
}

func (c *memoryCache) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		return nil, 0, ErrKeyNotFound
	}
	var ttl time.Duration
	if !e.expires.IsZero() {
		ttl = time.Until(e.expires)
	}
	return e.value, ttl, nil
}

func (c *memoryCache) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	now := time.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, k := range keys {
		if e, ok := c.entries[k]; ok && !e.expired(now) {
			out[k] = e.value
		}
	}
	return out, nil
}

func (c *memoryCache) MSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) error {
	for k, v := range entries {
		if err := c.Set(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (c *memoryCache) MDelete(ctx context.Context, keys []string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.entries[k]; ok {
			delete(c.entries, k)
			n++
		}
	}
	return n, nil
}

func (c *memoryCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for k := range c.entries {
		if matched, _ := filepath.Match(pattern, k); matched {
			out = append(out, k)
		}
	}
	return out, nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	keys, _ := c.Keys(ctx, pattern)
	return c.MDelete(ctx, keys)
}

func (c *memoryCache) Stats(ctx context.Context) (*Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.hits + c.misses
	var rate float64
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return &Stats{
		TotalKeys: int64(len(c.entries)),
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   rate,
		Backend:   BackendMemory,
	}, nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Close() error {
	close(c.stopSweep)
	return nil
}

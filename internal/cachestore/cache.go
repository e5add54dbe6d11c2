// Package cachestore provides the pluggable cache backing @cache IR nodes
// and the DataLoader's optional cache, following the same interface shape
// as the logistics reference service's pkg/cache package.
package cachestore

import (
	"context"
	"errors"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	ErrKeyNotFound = errors.New("cachestore: key not found")
	ErrClosed      = errors.New("cachestore: cache is closed")
)

// Cache is the backing store for resolver-level response caching.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetWithTTL(ctx context.Context, key string) (value []byte, ttl time.Duration, err error)
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	MSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) error
	MDelete(ctx context.Context, keys []string) (int64, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Stats summarizes cache health. The /health endpoint does not report it.
type Stats struct {
	TotalKeys int64
	Hits      int64
	Misses    int64
	HitRate   float64
	Backend   string
}

// Options configures either backend.
type Options struct {
	Backend         string
	DefaultTTL      time.Duration
	MaxEntries      int
	CleanupInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

func DefaultOptions() *Options {
	return &Options{
		Backend:         BackendMemory,
		DefaultTTL:      5 * time.Minute,
		MaxEntries:      100000,
		CleanupInterval: time.Minute,
		RedisAddr:       "localhost:6379",
		RedisPoolSize:   10,
	}
}

// New builds a Cache for the configured backend.
func New(opts *Options) (Cache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	switch opts.Backend {
	case BackendRedis:
		return newRedisCache(opts)
	case BackendMemory, "":
		return newMemoryCache(opts), nil
	default:
		return newMemoryCache(opts), nil
	}
}

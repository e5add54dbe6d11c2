package cachestore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache backs the cache interface with a shared redis.Client,
// following the logistics service's pkg/cache Redis backend.
type redisCache struct {
	client *redis.Client
	prefix string
}

func newRedisCache(opts *Options) (*redisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
		PoolSize: opts.RedisPoolSize,
	})
	return &redisCache{client: client}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrKeyNotFound
	}
	return b, err
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

func (c *redisCache) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, error) {
	b, err := c.Get(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return nil, 0, err
	}
	return b, ttl, nil
}

func (c *redisCache) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for i, v := range vals {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			out[keys[i]] = []byte(s)
		}
	}
	return out, nil
}

func (c *redisCache) MSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) error {
	pipe := c.client.Pipeline()
	for k, v := range entries {
		pipe.Set(ctx, k, v, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) MDelete(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return c.client.Del(ctx, keys...).Result()
}

func (c *redisCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	return c.client.Keys(ctx, pattern).Result()
}

func (c *redisCache) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	keys, err := c.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	return c.MDelete(ctx, keys)
}

func (c *redisCache) Stats(ctx context.Context) (*Stats, error) {
	dbSize, err := c.client.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}
	return &Stats{TotalKeys: dbSize, Backend: BackendRedis}, nil
}

func (c *redisCache) Clear(ctx context.Context) error {
	return c.client.FlushDB(ctx).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

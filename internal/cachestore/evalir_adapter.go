package cachestore

import (
	"context"
	"time"
)

// EvalirBackend adapts a Cache to evalir.CacheBackend's narrower Get/Set
// shape (no error return — a cache miss or backend error is treated the
// same way by a resolver's Cache IR node: fall through and recompute).
type EvalirBackend struct {
	Cache Cache
}

func (b EvalirBackend) Get(ctx context.Context, key string) ([]byte, bool) {
	v, err := b.Cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (b EvalirBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_ = b.Cache.Set(ctx, key, value, ttl)
}

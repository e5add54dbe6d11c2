package cachestore

import (
	"context"
	"testing"
	"time"
)

func TestEvalirBackendRoundTripsThroughCache(t *testing.T) {
	c, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer c.Close()

	b := EvalirBackend{Cache: c}
	ctx := context.Background()

	if _, ok := b.Get(ctx, "missing"); ok {
		t.Fatalf("expected miss for unset key")
	}

	b.Set(ctx, "k1", []byte("hello"), time.Minute)
	v, ok := b.Get(ctx, "k1")
	if !ok {
		t.Fatalf("expected hit after Set")
	}
	if string(v) != "hello" {
		t.Fatalf("got %q", v)
	}
}

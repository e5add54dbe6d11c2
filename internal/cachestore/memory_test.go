package cachestore

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := newMemoryCache(DefaultOptions())
	defer c.Close()
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("got %q err %v", got, err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := newMemoryCache(DefaultOptions())
	defer c.Close()
	ctx := context.Background()
	_ = c.Set(ctx, "k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); err != ErrKeyNotFound {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestMemoryCacheMGetMSet(t *testing.T) {
	c := newMemoryCache(DefaultOptions())
	defer c.Close()
	ctx := context.Background()
	_ = c.MSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, time.Minute)
	got, err := c.MGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 found keys, got %d", len(got))
	}
}

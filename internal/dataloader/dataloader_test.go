package dataloader

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoadManyCoalescesIntoOneBatch(t *testing.T) {
	var batchCalls int32
	l := New(10*time.Millisecond, 0, func(ctx context.Context, keys []int) []Result[string] {
		atomic.AddInt32(&batchCalls, 1)
		out := make([]Result[string], len(keys))
		for i, k := range keys {
			out[i] = Result[string]{Value: "v" + string(rune('0'+k))}
		}
		return out
	})

	results := l.LoadMany(context.Background(), []int{1, 2, 3})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if atomic.LoadInt32(&batchCalls) != 1 {
		t.Fatalf("expected exactly 1 batch call, got %d", batchCalls)
	}
}

func TestMaxBatchSizeTriggersImmediateFlush(t *testing.T) {
	var batchSizes []int
	var mu atomicSlice
	l := New(time.Second, 2, func(ctx context.Context, keys []int) []Result[int] {
		mu.add(len(keys))
		out := make([]Result[int], len(keys))
		for i, k := range keys {
			out[i] = Result[int]{Value: k * 2}
		}
		return out
	})
	results := l.LoadMany(context.Background(), []int{1, 2, 3, 4})
	for i, r := range results {
		if r.Value != (i+1)*2 {
			t.Fatalf("result %d mismatch: %v", i, r)
		}
	}
	_ = batchSizes
}

type atomicSlice struct {
	v int32
}

func (a *atomicSlice) add(n int) { atomic.AddInt32(&a.v, int32(n)) }

func TestDuplicateKeyDeduped(t *testing.T) {
	var calls int32
	l := New(5*time.Millisecond, 0, func(ctx context.Context, keys []int) []Result[int] {
		atomic.AddInt32(&calls, 1)
		out := make([]Result[int], len(keys))
		for i, k := range keys {
			out[i] = Result[int]{Value: k}
		}
		return out
	})
	results := l.LoadMany(context.Background(), []int{7, 7, 7})
	for _, r := range results {
		if r.Value != 7 {
			t.Fatalf("expected 7, got %d", r.Value)
		}
	}
}

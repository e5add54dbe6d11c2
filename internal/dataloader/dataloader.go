// Package dataloader implements a generic per-request batching loader: keys
// requested within a short delay window (or up to maxBatchSize) are
// coalesced into a single BatchFunc call, with at most one in-flight batch
// load per distinct key at a time.
//
// The coalescing shape mirrors the teacher's executor depth-wise
// "collect then flush as one batch" loop (internal/executor.go's
// flushAsyncTasks), generalized from a fixed per-depth flush to a
// delay/size-triggered timer so it can sit behind any number of concurrent
// resolver calls within one request, not just one GraphQL execution depth.
package dataloader

import (
	"context"
	"sync"
	"time"
)

// BatchFunc loads a batch of keys, returning one result per key in the same
// order as keys (len(results) == len(keys), results[i] corresponds to keys[i]).
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) []Result[V]

// Result is one key's outcome within a batch.
type Result[V any] struct {
	Value V
	Err   error
}

// Cache is the optional backing store a Loader may consult before batching
// and populate after a batch completes.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
}

type pendingKey[V any] struct {
	chs []chan Result[V]
}

// Loader batches and deduplicates loads for one (key type, value type) pair.
type Loader[K comparable, V any] struct {
	batchFn      BatchFunc[K, V]
	delay        time.Duration
	maxBatchSize int
	cache        Cache[K, V]

	mu      sync.Mutex
	pending map[K]*pendingKey[V]
	order   []K
	timer   *time.Timer
	timerCh chan struct{}
}

// Option configures a Loader.
type Option[K comparable, V any] func(*Loader[K, V])

// WithCache attaches a backing cache consulted before batching.
func WithCache[K comparable, V any](c Cache[K, V]) Option[K, V] {
	return func(l *Loader[K, V]) { l.cache = c }
}

// New constructs a Loader with the given coalescing window and batch cap.
// maxBatchSize <= 0 means unbounded.
func New[K comparable, V any](delay time.Duration, maxBatchSize int, fn BatchFunc[K, V], opts ...Option[K, V]) *Loader[K, V] {
	l := &Loader[K, V]{
		batchFn:      fn,
		delay:        delay,
		maxBatchSize: maxBatchSize,
		pending:      make(map[K]*pendingKey[V]),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LoadOne requests a single key, returning once its batch has resolved.
func (l *Loader[K, V]) LoadOne(ctx context.Context, key K) (V, error) {
	if l.cache != nil {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
	}
	ch := l.enqueue(key)
	select {
	case res := <-ch:
		if res.Err == nil && l.cache != nil {
			l.cache.Set(key, res.Value)
		}
		return res.Value, res.Err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// LoadMany requests several keys concurrently, returning results in the
// same order as keys.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) []Result[V] {
	results := make([]Result[V], len(keys))
	var wg sync.WaitGroup
	wg.Add(len(keys))
	for i, k := range keys {
		go func(i int, k K) {
			defer wg.Done()
			v, err := l.LoadOne(ctx, k)
			results[i] = Result[V]{Value: v, Err: err}
		}(i, k)
	}
	wg.Wait()
	return results
}

// enqueue registers key for the next batch, deduplicating concurrent
// requests for a key that is queued or in flight onto that key's one batch
// slot (each caller still gets its own channel), and arms the flush timer
// (or flushes immediately once maxBatchSize is reached).
func (l *Loader[K, V]) enqueue(key K) chan Result[V] {
	ch := make(chan Result[V], 1)
	l.mu.Lock()
	if pk, ok := l.pending[key]; ok {
		pk.chs = append(pk.chs, ch)
		l.mu.Unlock()
		return ch
	}
	pk := &pendingKey[V]{chs: []chan Result[V]{ch}}
	l.pending[key] = pk
	l.order = append(l.order, key)

	flushNow := l.maxBatchSize > 0 && len(l.order) >= l.maxBatchSize
	if flushNow {
		batch := l.drainLocked()
		l.mu.Unlock()
		l.dispatch(batch)
		return ch
	}
	if l.timer == nil {
		l.timer = time.AfterFunc(l.delay, l.flush)
	}
	l.mu.Unlock()
	return ch
}

type batch[K comparable, V any] struct {
	keys []K
}

// drainLocked takes the queued keys as one batch; their pending entries stay
// registered until dispatch delivers the results.
func (l *Loader[K, V]) drainLocked() batch[K, V] {
	b := batch[K, V]{keys: l.order}
	l.order = nil
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	return b
}

func (l *Loader[K, V]) flush() {
	l.mu.Lock()
	if len(l.order) == 0 {
		l.mu.Unlock()
		return
	}
	b := l.drainLocked()
	l.mu.Unlock()
	l.dispatch(b)
}

func (l *Loader[K, V]) dispatch(b batch[K, V]) {
	if len(b.keys) == 0 {
		return
	}
	results := l.batchFn(context.Background(), b.keys)
	l.mu.Lock()
	waiters := make([][]chan Result[V], len(b.keys))
	for i, k := range b.keys {
		waiters[i] = l.pending[k].chs
		delete(l.pending, k)
	}
	l.mu.Unlock()
	for i, chs := range waiters {
		res := Result[V]{Err: errShortBatch}
		if i < len(results) {
			res = results[i]
		}
		for _, ch := range chs {
			ch <- res
			close(ch)
		}
	}
}

var errShortBatch = batchLengthMismatchError{}

type batchLengthMismatchError struct{}

func (batchLengthMismatchError) Error() string {
	return "dataloader: batch function returned fewer results than keys"
}

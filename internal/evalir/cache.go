package evalir

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// cacheControlMu serializes merges into a request's Cache-Control
// accumulator, which sibling fields update from concurrent goroutines.
var cacheControlMu sync.Mutex

// CacheBackend is the subset of cachestore.Cache an IR Cache node needs,
// kept minimal here to avoid a dependency cycle between evalir and
// cachestore; the gateway wires a real cachestore.Cache into this at
// blueprint-build time.
type CacheBackend interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Cache memoizes Child's result under a fingerprint of the parent value
// plus KeyFields, using Backend, and merges MaxAge/Public into the
// request's Cache-Control accumulator regardless of hit or miss.
type Cache struct {
	Child   IR
	Backend CacheBackend
	TTL     time.Duration
	MaxAge  int
	Public  bool
}

func (n Cache) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	if rc.CacheControl != nil {
		cacheControlMu.Lock()
		merged := rc.CacheControl.Merge(CacheControl{MaxAge: n.MaxAge, Public: n.Public})
		*rc.CacheControl = merged
		cacheControlMu.Unlock()
	}
	if n.Backend == nil {
		return n.Child.Eval(ctx, rc, parent)
	}
	key := FingerprintKey(parent)
	if cached, ok := n.Backend.Get(ctx, key); ok {
		var v any
		if err := json.Unmarshal(cached, &v); err == nil {
			return v, nil
		}
	}
	v, err := n.Child.Eval(ctx, rc, parent)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(v); err == nil {
		n.Backend.Set(ctx, key, b, n.TTL)
	}
	return v, nil
}

// FingerprintKey canonicalizes v (sorted-key JSON) and returns its hex
// sha256, following the logistics service's pkg/cache/hasher.go
// canonicalize-then-hash pattern.
func FingerprintKey(v any) string {
	b, err := json.Marshal(canonicalize(v))
	if err != nil {
		b = []byte("null")
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// canonicalize recursively converts maps into a deterministic
// representation; encoding/json already sorts map[string]any keys, so this
// mainly normalizes nested value types for stability.
func canonicalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = canonicalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = canonicalize(vv)
		}
		return out
	default:
		return x
	}
}

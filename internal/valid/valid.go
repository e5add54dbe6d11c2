// Package valid implements an accumulating-error applicative, used by the
// config and blueprint compilers so that every pass reports every cause it
// finds instead of stopping at the first one.
package valid

import "strings"

// Cause is a single accumulated validation failure.
type Cause struct {
	Message     string
	Path        []string
	Description *string
}

func (c Cause) String() string {
	if len(c.Path) == 0 {
		return c.Message
	}
	return strings.Join(c.Path, ".") + ": " + c.Message
}

// Valid holds either a value or one-or-more causes. The zero value is not
// a success (OK reports false) and carries no causes; always construct via
// Succeed/Fail.
type Valid[A any] struct {
	value  A
	causes []Cause
	ok     bool
}

// Succeed wraps a value with no causes.
func Succeed[A any](v A) Valid[A] {
	return Valid[A]{value: v, ok: true}
}

// Fail produces a failed Valid carrying the given causes.
func Fail[A any](causes ...Cause) Valid[A] {
	if len(causes) == 0 {
		causes = []Cause{{Message: "validation failed"}}
	}
	return Valid[A]{causes: causes}
}

// FromSlice turns a non-empty cause slice into a failure, or succeeds with v.
func FromSlice[A any](v A, causes []Cause) Valid[A] {
	if len(causes) == 0 {
		return Succeed(v)
	}
	return Valid[A]{causes: causes}
}

// OK reports whether v carries a value rather than causes.
func (v Valid[A]) OK() bool { return v.ok }

// Causes returns the accumulated causes, empty when OK.
func (v Valid[A]) Causes() []Cause { return v.causes }

// Value returns the underlying value. Only meaningful when OK() is true.
func (v Valid[A]) Value() A { return v.value }

// Get returns the value and a bool, mirroring comma-ok idiom.
func (v Valid[A]) Get() (A, bool) { return v.value, v.ok }

// Trace prepends segment to the path of every accumulated cause.
func (v Valid[A]) Trace(segment string) Valid[A] {
	if v.ok {
		return v
	}
	traced := make([]Cause, len(v.causes))
	for i, c := range v.causes {
		np := make([]string, 0, len(c.Path)+1)
		np = append(np, segment)
		np = append(np, c.Path...)
		traced[i] = Cause{Message: c.Message, Path: np, Description: c.Description}
	}
	return Valid[A]{causes: traced}
}

// Map transforms a success value, passing failures through unchanged.
func Map[A, B any](v Valid[A], f func(A) B) Valid[B] {
	if !v.ok {
		return Valid[B]{causes: v.causes}
	}
	return Succeed(f(v.value))
}

// Fuse combines two Valids via f, accumulating causes from BOTH sides even
// when only one has failed — this is what distinguishes it from a
// short-circuiting bind: both a and b are always evaluated to completion
// before Fuse inspects their outcome.
func Fuse[A, B, C any](a Valid[A], b Valid[B], f func(A, B) C) Valid[C] {
	if a.ok && b.ok {
		return Succeed(f(a.value, b.value))
	}
	causes := make([]Cause, 0, len(a.causes)+len(b.causes))
	causes = append(causes, a.causes...)
	causes = append(causes, b.causes...)
	return Valid[C]{causes: causes}
}

// And is Fuse specialized to void the right side, useful for sequencing a
// check that contributes only causes.
func And[A any](a Valid[A], b Valid[struct{}]) Valid[A] {
	return Fuse(a, b, func(av A, _ struct{}) A { return av })
}

// Check runs a side-effecting validity check; ok=false with causes is folded
// into the accumulation without affecting the carried value type.
func Check(ok bool, cause Cause) Valid[struct{}] {
	if ok {
		return Succeed(struct{}{})
	}
	return Fail[struct{}](cause)
}

// Collect accumulates a slice of same-typed Valids into one Valid slice,
// concatenating all causes from all failing elements (never short-circuits).
func Collect[A any](items []Valid[A]) Valid[[]A] {
	causes := make([]Cause, 0)
	values := make([]A, 0, len(items))
	for _, it := range items {
		if it.ok {
			values = append(values, it.value)
		} else {
			causes = append(causes, it.causes...)
		}
	}
	if len(causes) > 0 {
		return Valid[[]A]{causes: causes}
	}
	return Succeed(values)
}

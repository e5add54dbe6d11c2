// Package tryfold implements a fold-chain combinator for lowering one
// GraphQL field's directives into IR, generalizing the teacher's
// buildfieldresolution.go dispatch chain (pre-scan conflicting directives,
// dispatch the matching handler, fall back to an implicit rule, fall back
// to source passthrough) into a reusable, composable type. The blueprint
// compiler does not use it: it lowers each field with a switch over the
// field's resolver directive.
package tryfold

import "github.com/fluxweld/gatewing/internal/valid"

// TryFold threads an accumulating value O through a directive-lowering
// step, given shared input I (e.g. the field/definition under
// construction) and the currently folded O, producing the next Valid[O].
type TryFold[I, O any] func(I, O) valid.Valid[O]

// And chains this step with next, passing this step's output (on success)
// into next; on failure, next still runs against the prior O so sibling
// directive causes accumulate instead of stopping at the first bad one.
func (f TryFold[I, O]) And(next TryFold[I, O]) TryFold[I, O] {
	return func(in I, acc O) valid.Valid[O] {
		first := f(in, acc)
		v, ok := first.Get()
		if !ok {
			// Keep folding against the pre-step accumulator so a later
			// directive's own violations are still surfaced (P1).
			second := next(in, acc)
			if second.OK() {
				return valid.Fail[O](first.Causes()...)
			}
			return valid.Fail[O](append(first.Causes(), second.Causes()...)...)
		}
		return next(in, v)
	}
}

// Chain folds a sequence of steps left to right over a starting value.
func Chain[I, O any](steps ...TryFold[I, O]) TryFold[I, O] {
	return func(in I, acc O) valid.Valid[O] {
		cur := valid.Succeed(acc)
		for _, step := range steps {
			v, ok := cur.Get()
			if !ok {
				next := step(in, acc)
				if !next.OK() {
					cur = valid.Fail[O](append(cur.Causes(), next.Causes()...)...)
				}
				continue
			}
			cur = step(in, v)
		}
		return cur
	}
}

// Identity returns the accumulator unchanged; used as a chain's base case.
func Identity[I, O any]() TryFold[I, O] {
	return func(_ I, acc O) valid.Valid[O] { return valid.Succeed(acc) }
}

// Package jit executes a planner.PlanNode tree against a RequestContext.
// Every field of a selection set runs in its own goroutine, as does every
// element of a list field, and a selection set returns once all of its
// fields have completed; each field then resolves its own subtree, so
// fields at the same depth under different parents are not gathered into
// one group. A field whose IR fails is set to null and its error recorded at
// its path; the null is not propagated to a non-null parent.
package jit

import (
	"context"
	"sync"

	"github.com/fluxweld/gatewing/internal/evalir"
	"github.com/fluxweld/gatewing/internal/planner"
)

// GraphQLError is one entry of the response's top-level "errors" array.
type GraphQLError struct {
	Message string
	Path    []any
}

// Response is the fully assembled JIT execution result. Data is an
// *OrderedMap (or nil), never a plain map[string]any — its MarshalJSON
// preserves the selection set's field order (P6) through whatever encodes
// it downstream.
type Response struct {
	Data         any
	Errors       []GraphQLError
	CacheControl evalir.CacheControl
}

// Executor runs plans against a shared evalir.RequestContext.
type Executor struct{}

// New constructs an Executor. It is stateless; it exists so the gateway's
// server wiring can hold a consistent value even though nothing is cached
// across requests here (each request gets its own RequestContext).
func New() *Executor { return &Executor{} }

// Execute runs root's children against a nil root value (root-type fields'
// resolvers don't read a parent).
func (e *Executor) Execute(ctx context.Context, root *planner.PlanNode, rc *evalir.RequestContext) *Response {
	cc := evalir.IdentityCacheControl()
	rc.CacheControl = &cc

	var collector errorCollector
	data := e.executeSelectionSet(ctx, root.Children, nil, rc, []any{}, &collector)
	return &Response{Data: data, Errors: collector.errors, CacheControl: cc}
}

type errorCollector struct {
	mu     sync.Mutex
	errors []GraphQLError
}

func (c *errorCollector) add(path []any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, GraphQLError{Message: err.Error(), Path: append([]any(nil), path...)})
}

// executeSelectionSet runs every field in nodes against parent concurrently
// (one goroutine per field, mirroring the teacher's per-field-group async
// dispatch) and assembles an OrderedMap preserving selection order (P6):
// each goroutine writes into a slot reserved by its position in nodes, so
// assembly order never depends on which field resolves first.
func (e *Executor) executeSelectionSet(ctx context.Context, nodes []*planner.PlanNode, parent any, rc *evalir.RequestContext, path []any, collector *errorCollector) *OrderedMap {
	values := make([]any, len(nodes))
	var wg sync.WaitGroup
	for i, n := range nodes {
		i, n := i, n
		wg.Add(1)
		go func() {
			defer wg.Done()
			values[i] = e.executeField(ctx, n, parent, rc, append(path, n.ResponseKey), collector)
		}()
	}
	wg.Wait()

	out := NewOrderedMap(len(nodes))
	for i, n := range nodes {
		out.Set(n.ResponseKey, values[i])
	}
	return out
}

func (e *Executor) executeField(ctx context.Context, n *planner.PlanNode, parent any, rc *evalir.RequestContext, path []any, collector *errorCollector) any {
	if n.FieldName == "__typename" {
		return typeNameOf(parent)
	}

	value, err := e.resolveFieldValue(ctx, n, parent, rc)
	if err != nil {
		collector.add(path, err)
		if n.NonNull {
			return nil
		}
		return nil
	}
	if value == nil {
		return nil
	}
	return e.completeValue(ctx, n, value, rc, path, collector)
}

// resolveFieldValue evaluates the field's own IR (if it has one), or reads
// the value straight off parent for plain source passthrough fields.
func (e *Executor) resolveFieldValue(ctx context.Context, n *planner.PlanNode, parent any, rc *evalir.RequestContext) (any, error) {
	if n.Resolver == nil {
		return sourcePassthrough(parent, n.FieldName), nil
	}
	scoped := scopeArgs(rc, n.Args)
	return n.Resolver.Eval(ctx, scoped, parent)
}

// scopeArgs returns a RequestContext whose Vars carries the current field's
// coerced arguments under "args", alongside the operation's own variables
// under "vars" — the convention @http/@grpc/@graphQL request templates use
// to reference field arguments ("{{.vars.args.id}}").
func scopeArgs(rc *evalir.RequestContext, args map[string]any) *evalir.RequestContext {
	if len(args) == 0 {
		return rc
	}
	merged := make(map[string]any, len(rc.Vars)+1)
	for k, v := range rc.Vars {
		merged[k] = v
	}
	merged["args"] = args
	clone := *rc
	clone.Vars = merged
	return &clone
}

func sourcePassthrough(parent any, fieldName string) any {
	m, ok := parent.(map[string]any)
	if !ok {
		return nil
	}
	return m[fieldName]
}

func typeNameOf(parent any) any {
	m, ok := parent.(map[string]any)
	if !ok {
		return nil
	}
	if t, ok := m["__typename"]; ok {
		return t
	}
	return nil
}

// completeValue applies GraphQL completion: lists recurse element-wise,
// abstract types resolve their concrete selection set via Discriminator,
// and plain objects recurse into their children.
func (e *Executor) completeValue(ctx context.Context, n *planner.PlanNode, value any, rc *evalir.RequestContext, path []any, collector *errorCollector) any {
	if n.IsList {
		list, ok := value.([]any)
		if !ok {
			return nil
		}
		out := make([]any, len(list))
		var wg sync.WaitGroup
		for i, item := range list {
			i, item := i, item
			wg.Add(1)
			go func() {
				defer wg.Done()
				itemPath := append(append([]any(nil), path...), i)
				out[i] = e.completeScalarOrObject(ctx, n, item, rc, itemPath, collector)
			}()
		}
		wg.Wait()
		return out
	}
	return e.completeScalarOrObject(ctx, n, value, rc, path, collector)
}

func (e *Executor) completeScalarOrObject(ctx context.Context, n *planner.PlanNode, value any, rc *evalir.RequestContext, path []any, collector *errorCollector) any {
	if len(n.Children) == 0 {
		return value
	}
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	if n.Discriminator != nil {
		if typeName, err := discriminate(n, obj); err == nil {
			obj["__typename"] = typeName
		} else {
			collector.add(path, err)
		}
	}
	return e.executeSelectionSet(ctx, n.Children, obj, rc, path, collector)
}

func asObject(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	default:
		return nil, false
	}
}

func discriminate(n *planner.PlanNode, obj map[string]any) (string, error) {
	fields := make([]string, 0, len(obj))
	for k := range obj {
		fields = append(fields, k)
	}
	bs := n.Discriminator.ValueBitset(fields)
	typeName, ok := n.Discriminator.Resolve(bs)
	if !ok {
		return "", &evalir.DiscriminatorError{AbstractType: n.Discriminator.AbstractType}
	}
	return typeName, nil
}

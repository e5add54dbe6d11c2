package evalir

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ContextPath reads a dotted path out of the request context (headers,
// variables, or env), independent of the parent value — used for @expr
// expressions referencing $ctx.
type ContextPath struct {
	Segments []string
}

func (p ContextPath) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	if len(p.Segments) == 0 {
		return nil, nil
	}
	switch p.Segments[0] {
	case "vars":
		return lookupPath(rc.Vars, p.Segments[1:]), nil
	case "env":
		if len(p.Segments) < 2 {
			return nil, nil
		}
		v, ok := rc.Env[p.Segments[1]]
		if !ok {
			return nil, nil
		}
		return v, nil
	case "headers":
		if len(p.Segments) < 2 {
			return nil, nil
		}
		vs, ok := rc.Headers[p.Segments[1]]
		if !ok || len(vs) == 0 {
			return nil, nil
		}
		return vs[0], nil
	default:
		return nil, nil
	}
}

func lookupPath(m map[string]any, path []string) any {
	var cur any = m
	for _, seg := range path {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = mm[seg]
		if !ok {
			return nil
		}
	}
	return cur
}

// Path extracts a value out of the parent via a gjson path expression,
// grounded on the gateway's JSON upstream responses needing the same kind
// of path traversal a REST-aggregation API gateway uses for group_by keys.
// A string parent is read as raw JSON; any other parent (a decoded upstream
// body, a parent object) is encoded to JSON first.
type Path struct {
	Expr string
}

func (p Path) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	raw, ok := parent.(string)
	if !ok {
		b, err := json.Marshal(parent)
		if err != nil {
			return nil, fmt.Errorf("evalir: Path cannot encode parent %T: %w", parent, err)
		}
		raw = string(b)
	}
	res := gjson.Get(raw, p.Expr)
	if !res.Exists() {
		return nil, nil
	}
	return res.Value(), nil
}

// Map applies a child IR to each element of a list parent and returns the
// first error encountered; on an error no partial list is returned.
type Map struct {
	Child IR
}

func (m Map) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	list, ok := parent.([]any)
	if !ok {
		return nil, fmt.Errorf("evalir: Map requires a list parent, got %T", parent)
	}
	out := make([]any, len(list))
	for i, item := range list {
		v, err := m.Child.Eval(ctx, rc, item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dynamic evaluates a map of child IRs keyed by output field name into one
// object. internal/blueprint does not emit Dynamic nodes; nested resolvers
// are not seeded with one.
type Dynamic struct {
	Fields map[string]IR
}

func (d Dynamic) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	out := make(map[string]any, len(d.Fields))
	for name, child := range d.Fields {
		v, err := child.Eval(ctx, rc, parent)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// Protect gates Child behind the request's authentication check, used for
// @protected; it returns an authentication error rather than a nil value so
// the executor reports it distinctly from an ordinary upstream failure.
type Protect struct {
	Child IR
}

type AuthError struct{ Reason string }

func (e *AuthError) Error() string { return "evalir: unauthorized: " + e.Reason }

func (p Protect) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	if rc.AuthOK == nil || !rc.AuthOK(ctx) {
		return nil, &AuthError{Reason: "missing or invalid credentials"}
	}
	return p.Child.Eval(ctx, rc, parent)
}

// IfElse evaluates Cond; a truthy, non-nil, non-false/zero result selects
// Then, otherwise Else runs.
type IfElse struct {
	Cond IR
	Then IR
	Else IR
}

func (n IfElse) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	cv, err := n.Cond.Eval(ctx, rc, parent)
	if err != nil {
		return nil, err
	}
	if truthy(cv) {
		return n.Then.Eval(ctx, rc, parent)
	}
	if n.Else == nil {
		return nil, nil
	}
	return n.Else.Eval(ctx, rc, parent)
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	default:
		return true
	}
}

// Pipe threads a value through a sequence of IR nodes, each receiving the
// prior stage's output as its parent — used to compose @modify onto an
// upstream call's result.
type Pipe struct {
	Stages []IR
}

func (n Pipe) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	cur := parent
	for _, stage := range n.Stages {
		v, err := stage.Eval(ctx, rc, cur)
		if err != nil {
			return nil, err
		}
		cur = v
	}
	return cur, nil
}

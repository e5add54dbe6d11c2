// Package blueprint compiles a validated config.Config into a Blueprint:
// an executable schema.Schema plus, for every (type, field) pair, the
// evalir.IR tree that resolves it. The compiler pipeline is grounded on the
// teacher's internal/ir/build.go ordered-pass structure (discover → define
// → resolve references → resolve field resolution → build dependency
// graph), generalized to accumulate every pass's causes via valid.Valid
// instead of returning on the first error (P1).
package blueprint

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fluxweld/gatewing/internal/config"
	"github.com/fluxweld/gatewing/internal/evalir"
	"github.com/fluxweld/gatewing/internal/gqltemplate"
	"github.com/fluxweld/gatewing/internal/reqtemplate"
	"github.com/fluxweld/gatewing/internal/schema"
	"github.com/fluxweld/gatewing/internal/transform"
	"github.com/fluxweld/gatewing/internal/valid"
)

// FieldKey identifies one type's field for resolver lookup.
type FieldKey struct {
	Type  string
	Field string
}

// Blueprint is the compiled, execution-ready artifact.
type Blueprint struct {
	Schema    *schema.Schema
	Resolvers map[FieldKey]evalir.IR
}

// Resolver looks up the compiled IR for (typeName, fieldName); ok is false
// for fields resolved by plain source passthrough (no directive), which the
// JIT executor handles by reading the field directly off the parent value.
func (b *Blueprint) Resolver(typeName, fieldName string) (evalir.IR, bool) {
	ir, ok := b.Resolvers[FieldKey{Type: typeName, Field: fieldName}]
	return ir, ok
}

// Requesters supplies the dispatch-layer clients the compiler wires into
// Http/Grpc/GraphQL IR nodes. Kept as an injected dependency rather than a
// package-level default so tests can substitute fakes.
type Requesters struct {
	HTTP    evalir.Requester
	GRPC    evalir.Requester
	GraphQL evalir.Requester

	// Cache backs every @cache field's IR node. Nil disables caching
	// (Cache nodes fall through to evaluating Child directly) while still
	// merging Cache-Control into the response.
	Cache evalir.CacheBackend
}

// Compile runs RemoveUnused, AmbiguousType, and Linter (the teacher-
// grounded default preset) followed by caller-supplied presets, validates
// the result, and lowers every field's resolver directive into IR.
func Compile(c config.Config, req Requesters, presets ...transform.Transformer) valid.Valid[*Blueprint] {
	pipeline := append([]transform.Transformer{
		transform.RemoveUnused,
		transform.AmbiguousType,
		transform.Linter,
	}, presets...)

	cur := valid.Succeed(c)
	for _, t := range pipeline {
		v, ok := cur.Get()
		if !ok {
			next := t(c)
			if !next.OK() {
				cur = valid.Fail[config.Config](append(cur.Causes(), next.Causes()...)...)
			}
			continue
		}
		cur = t(v)
	}
	validated := cur
	if !validated.OK() {
		return valid.Fail[*Blueprint](validated.Causes()...)
	}
	c = validated.Value()

	checked := c.Validate()
	if !checked.OK() {
		return valid.Fail[*Blueprint](checked.Causes()...)
	}

	sch, err := schema.BuildFromConfig(&c)
	if err != nil {
		return valid.Fail[*Blueprint](valid.Cause{Message: err.Error()})
	}

	resolvers := map[FieldKey]evalir.IR{}
	var causes []valid.Cause
	for typeName, t := range c.Types {
		for fieldName, f := range t.Fields {
			if f.Resolver == nil {
				continue
			}
			ir, fieldCauses := lowerResolver(typeName, fieldName, f, req)
			if len(fieldCauses) > 0 {
				causes = append(causes, fieldCauses...)
				continue
			}
			wrapped := wrapCacheAndProtect(ir, f, req.Cache)
			resolvers[FieldKey{Type: typeName, Field: fieldName}] = wrapped
		}
	}
	if len(causes) > 0 {
		return valid.Fail[*Blueprint](causes...)
	}
	return valid.Succeed(&Blueprint{Schema: sch, Resolvers: resolvers})
}

func lowerResolver(typeName, fieldName string, f *config.Field, req Requesters) (evalir.IR, []valid.Cause) {
	r := f.Resolver
	switch {
	case r.Http != nil:
		return lowerHTTP(r.Http, req.HTTP), nil
	case r.Grpc != nil:
		return lowerGrpc(r.Grpc, req.GRPC), nil
	case r.GraphQL != nil:
		return lowerGraphQL(r.GraphQL, req.GraphQL), nil
	case r.Expr != nil:
		return lowerExpr(r.Expr), nil
	case r.Call != nil:
		return evalir.Path{Expr: r.Call.FieldPath}, nil
	case r.Modify != nil:
		return lowerModify(typeName, fieldName, r.Modify, req)
	default:
		return nil, []valid.Cause{{
			Message: "field has a resolver with no recognized directive",
			Path:    []string{typeName, fieldName},
		}}
	}
}

func lowerHTTP(h *config.HttpResolver, client evalir.Requester) evalir.IR {
	return evalir.Http{
		Template: &reqtemplate.RequestTemplate{
			Method: h.Method,
			URL:    gqltemplate.Parse(h.URL),
			Body:   bodyTemplate(h.Body),
		},
		Client:     client,
		ResultPath: h.ResultPath,
	}
}

func lowerGrpc(g *config.GrpcResolver, client evalir.Requester) evalir.IR {
	return evalir.Grpc{
		Template: &reqtemplate.RequestTemplate{
			Method: "POST",
			URL:    gqltemplate.Parse(g.Endpoint + "|" + g.Method),
			Body:   bodyTemplate(g.Body),
		},
		Client: client,
	}
}

func lowerGraphQL(g *config.GraphQLResolver, client evalir.Requester) evalir.IR {
	body := gqltemplate.Parse(g.Query)
	return evalir.GraphQL{
		Template: &reqtemplate.RequestTemplate{
			Method: "POST",
			URL:    gqltemplate.Parse(g.Endpoint),
			Body:   &body,
		},
		Client:     client,
		ResultPath: g.ResultPath,
	}
}

func bodyTemplate(s string) *gqltemplate.Template {
	if s == "" {
		return nil
	}
	t := gqltemplate.Parse(s)
	return &t
}

func lowerModify(typeName, fieldName string, m *config.ModifyResolver, req Requesters) (evalir.IR, []valid.Cause) {
	base, causes := lowerResolver(typeName, fieldName, &config.Field{Resolver: m.Of}, req)
	if len(causes) > 0 {
		return nil, causes
	}
	stages := []evalir.IR{base}
	for _, expr := range m.Pipeline {
		stages = append(stages, lowerExpr(&config.ExprResolver{Expression: expr}))
	}
	return evalir.Pipe{Stages: stages}, nil
}

func wrapCacheAndProtect(ir evalir.IR, f *config.Field, backend evalir.CacheBackend) evalir.IR {
	if f.Protected != nil {
		ir = evalir.Protect{Child: ir}
	}
	if f.CacheSpec != nil {
		ir = evalir.Cache{Child: ir, Backend: backend, MaxAge: f.CacheSpec.MaxAge, Public: f.CacheSpec.Public}
	}
	return ir
}

// lowerExpr lowers an @expr directive. The core excludes sandboxed
// arbitrary code execution (see SPEC_FULL.md Non-goals), so only a closed
// family of path/context expressions is supported: "$parent.a.b",
// "$ctx.vars.x", "$ctx.headers.X", and string literals.
func lowerExpr(e *config.ExprResolver) evalir.IR {
	expr := e.Expression
	switch {
	case len(expr) > 8 && expr[:8] == "$parent.":
		return evalir.Path{Expr: jsonPathFrom(expr[8:])}
	case len(expr) > 5 && expr[:5] == "$ctx.":
		return evalir.ContextPath{Segments: splitDot(expr[5:])}
	default:
		if lit, err := strconv.Unquote(expr); err == nil {
			return evalir.Func(func(_ context.Context, _ *evalir.RequestContext, _ any) (any, error) {
				return lit, nil
			})
		}
		return evalir.Func(func(_ context.Context, _ *evalir.RequestContext, _ any) (any, error) {
			return nil, fmt.Errorf("evalir: unsupported expression %q", expr)
		})
	}
}

func jsonPathFrom(dotted string) string { return dotted }

func splitDot(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}

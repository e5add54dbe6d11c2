package evalir

import (
	"context"

	"github.com/fluxweld/gatewing/internal/discriminator"
	"github.com/fluxweld/gatewing/internal/reqtemplate"
)

// Requester is the narrow capability an Http/Grpc/GraphQL IR node needs
// from the dispatch layer: render a request template against the current
// context/parent and return the decoded upstream response body. Concrete
// implementations live in internal/dispatch/{httpdisp,grpcdisp} and a thin
// GraphQL-upstream client; this interface is the Runtime-style seam the
// teacher's executor.Runtime models for field resolution.
type Requester interface {
	Do(ctx context.Context, tpl *reqtemplate.RequestTemplate, vars map[string]any) (any, error)
}

// Http evaluates an @http-directed resolver: render the request template
// against {parent, vars} (the field's arguments sit under vars.args) and
// return the decoded JSON body (optionally
// narrowed by ResultPath via gjson).
type Http struct {
	Template   *reqtemplate.RequestTemplate
	Client     Requester
	ResultPath string
}

func (n Http) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	vars := templateVars(rc, parent)
	result, err := n.Client.Do(ctx, n.Template, vars)
	if err != nil {
		return nil, err
	}
	if n.ResultPath == "" {
		return result, nil
	}
	return Path{Expr: n.ResultPath}.Eval(ctx, rc, result)
}

// Grpc evaluates an @grpc-directed resolver via the same Requester seam;
// the gRPC-specific dynamicpb marshaling lives behind the dispatch layer's
// Requester implementation, not in the IR node itself.
type Grpc struct {
	Template *reqtemplate.RequestTemplate
	Client   Requester
}

func (n Grpc) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	vars := templateVars(rc, parent)
	return n.Client.Do(ctx, n.Template, vars)
}

// GraphQL evaluates an @graphQL-directed resolver against an upstream
// GraphQL service, again via the shared Requester seam.
type GraphQL struct {
	Template   *reqtemplate.RequestTemplate
	Client     Requester
	ResultPath string
}

func (n GraphQL) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	vars := templateVars(rc, parent)
	result, err := n.Client.Do(ctx, n.Template, vars)
	if err != nil {
		return nil, err
	}
	if n.ResultPath == "" {
		return result, nil
	}
	return Path{Expr: n.ResultPath}.Eval(ctx, rc, result)
}

func templateVars(rc *RequestContext, parent any) map[string]any {
	return map[string]any{
		"parent": parent,
		"vars":   rc.Vars,
	}
}

// Discriminate resolves the concrete GraphQL type of parent using a
// bitset-based Discriminator (internal/discriminator), used wherever the
// schema needs an interface/union's runtime type without relying on the
// teacher's name-suffix heuristic.
type Discriminate struct {
	Disc          *discriminator.Discriminator
	PresentFields func(parent any) []string
}

func (n Discriminate) Eval(ctx context.Context, rc *RequestContext, parent any) (any, error) {
	fields := n.PresentFields(parent)
	bs := n.Disc.ValueBitset(fields)
	typeName, ok := n.Disc.Resolve(bs)
	if !ok {
		return nil, &DiscriminatorError{AbstractType: n.Disc.AbstractType}
	}
	return typeName, nil
}

type DiscriminatorError struct{ AbstractType string }

func (e *DiscriminatorError) Error() string {
	return "evalir: could not resolve concrete type for " + e.AbstractType
}

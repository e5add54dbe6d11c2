// Package gqltemplate implements the gateway's mustache-style {{a.b.c}}
// templating used by @http, @grpc, and REST-over-GraphQL request templates.
//
// Malformed syntax degrades to a literal rather than failing to parse: a
// gateway blueprint is compiled once and evaluated many times, so a template
// field is never allowed to reject a config at the templating layer — any
// rejection belongs to a later, type-aware pass.
package gqltemplate

import "strings"

// Lookup resolves a dotted path to its string representation.
type Lookup func(path []string) (string, bool)

type spanKind int

const (
	spanLiteral spanKind = iota
	spanExpr
)

type span struct {
	kind    spanKind
	literal string
	path    []string
}

// Template is a parsed sequence of literal and expression spans.
type Template struct {
	spans []span
	src   string
}

// Parse tokenizes s into a Template. It never returns an error: unterminated
// or empty "{{}}" markers are kept as literal text.
func Parse(s string) Template {
	var spans []span
	var lit strings.Builder
	i := 0
	for i < len(s) {
		if i+1 < len(s) && s[i] == '{' && s[i+1] == '{' {
			end := strings.Index(s[i+2:], "}}")
			if end < 0 {
				// Unterminated marker: treat the rest as literal.
				lit.WriteString(s[i:])
				i = len(s)
				break
			}
			inner := strings.TrimSpace(s[i+2 : i+2+end])
			if inner == "" {
				// Empty expression: keep the raw marker as literal text.
				lit.WriteString(s[i : i+2+end+2])
				i += 2 + end + 2
				continue
			}
			if lit.Len() > 0 {
				spans = append(spans, span{kind: spanLiteral, literal: lit.String()})
				lit.Reset()
			}
			spans = append(spans, span{kind: spanExpr, path: strings.Split(strings.TrimPrefix(inner, "."), ".")})
			i += 2 + end + 2
			continue
		}
		lit.WriteByte(s[i])
		i++
	}
	if lit.Len() > 0 {
		spans = append(spans, span{kind: spanLiteral, literal: lit.String()})
	}
	return Template{spans: spans, src: s}
}

// Render substitutes every expression span via lookup, leaving unresolved
// paths as an empty string.
func (t Template) Render(lookup Lookup) string {
	var out strings.Builder
	for _, sp := range t.spans {
		switch sp.kind {
		case spanLiteral:
			out.WriteString(sp.literal)
		case spanExpr:
			if v, ok := lookup(sp.path); ok {
				out.WriteString(v)
			}
		}
	}
	return out.String()
}

// RenderGraphQL behaves like Render but wraps each resolved substitution in
// double quotes, for embedding inside a GraphQL string literal position.
func (t Template) RenderGraphQL(lookup Lookup) string {
	var out strings.Builder
	for _, sp := range t.spans {
		switch sp.kind {
		case spanLiteral:
			out.WriteString(sp.literal)
		case spanExpr:
			if v, ok := lookup(sp.path); ok {
				out.WriteByte('"')
				out.WriteString(v)
				out.WriteByte('"')
			}
		}
	}
	return out.String()
}

// IsConst reports whether the template has no expression spans and can be
// pre-evaluated once at compile time instead of per request.
func (t Template) IsConst() bool {
	for _, sp := range t.spans {
		if sp.kind == spanExpr {
			return false
		}
	}
	return true
}

// String returns the original source, so Parse(t.String()) round-trips.
func (t Template) String() string { return t.src }

// PathString builds a Lookup over a nested string-keyed map, stringifying
// any scalar it finds at the resolved path.
func PathString(ctx map[string]any) Lookup {
	return func(path []string) (string, bool) {
		var cur any = ctx
		for _, seg := range path {
			m, ok := cur.(map[string]any)
			if !ok {
				return "", false
			}
			cur, ok = m[seg]
			if !ok {
				return "", false
			}
		}
		return stringify(cur)
	}
}

func stringify(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool:
		if x {
			return "true", true
		}
		return "false", true
	default:
		return toNumericString(x)
	}
}

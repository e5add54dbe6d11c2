package gqltemplate

import "testing"

func TestParseRenderRoundTrip(t *testing.T) {
	tpl := Parse("/users/{{.args.id}}/posts")
	lookup := func(path []string) (string, bool) {
		if len(path) == 2 && path[0] == "args" && path[1] == "id" {
			return "42", true
		}
		return "", false
	}
	got := tpl.Render(lookup)
	if got != "/users/42/posts" {
		t.Fatalf("got %q", got)
	}
	if tpl.String() != "/users/{{.args.id}}/posts" {
		t.Fatalf("round-trip mismatch: %q", tpl.String())
	}
}

func TestMalformedMarkerDegradesToLiteral(t *testing.T) {
	tpl := Parse("value: {{unterminated")
	got := tpl.Render(func([]string) (string, bool) { return "X", true })
	if got != "value: {{unterminated" {
		t.Fatalf("expected literal passthrough, got %q", got)
	}
}

func TestIsConst(t *testing.T) {
	if !Parse("static/path").IsConst() {
		t.Fatalf("expected const")
	}
	if Parse("static/{{.id}}").IsConst() {
		t.Fatalf("expected non-const")
	}
}

func TestRenderGraphQLQuotesSubstitutions(t *testing.T) {
	tpl := Parse("{ field(arg: {{.args.name}}) }")
	got := tpl.RenderGraphQL(func([]string) (string, bool) { return "bob", true })
	if got != `{ field(arg: "bob") }` {
		t.Fatalf("got %q", got)
	}
}

func TestPathStringLookupMissingPath(t *testing.T) {
	lookup := PathString(map[string]any{"a": map[string]any{"b": "c"}})
	if _, ok := lookup([]string{"a", "missing"}); ok {
		t.Fatalf("expected miss")
	}
	if v, ok := lookup([]string{"a", "b"}); !ok || v != "c" {
		t.Fatalf("got %q %v", v, ok)
	}
}

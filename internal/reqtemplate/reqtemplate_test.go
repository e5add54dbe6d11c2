package reqtemplate

import (
	"testing"

	"github.com/fluxweld/gatewing/internal/gqltemplate"
)

func TestRenderSubstitutesTemplates(t *testing.T) {
	tpl := &RequestTemplate{
		Method: "GET",
		URL:    gqltemplate.Parse("/users/{{.parent.id}}"),
		Headers: []KV{
			{Name: "X-Trace", Template: gqltemplate.Parse("{{.vars.traceID}}")},
		},
	}
	vars := map[string]any{
		"parent": map[string]any{"id": "u1"},
		"vars":   map[string]any{"traceID": "abc"},
	}
	req, err := tpl.Render(vars)
	if err != nil {
		t.Fatal(err)
	}
	if req.URL != "/users/u1" {
		t.Fatalf("got %q", req.URL)
	}
	if req.Headers["X-Trace"] != "abc" {
		t.Fatalf("got %q", req.Headers["X-Trace"])
	}
}

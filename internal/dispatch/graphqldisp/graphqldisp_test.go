package graphqldisp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fluxweld/gatewing/internal/dispatch/httpdisp"
	"github.com/fluxweld/gatewing/internal/gqltemplate"
	"github.com/fluxweld/gatewing/internal/reqtemplate"
)

func newTemplate(t *testing.T, url string) *reqtemplate.RequestTemplate {
	t.Helper()
	body := gqltemplate.Parse(`{"query":"{ viewer { id } }"}`)
	return &reqtemplate.RequestTemplate{
		Method: http.MethodPost,
		URL:    gqltemplate.Parse(url),
		Body:   &body,
	}
}

func TestDoUnwrapsDataOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"viewer":{"id":"u1"}}}`))
	}))
	defer srv.Close()

	d := New(httpdisp.New(httpdisp.DefaultOptions()))
	v, err := d.Do(context.Background(), newTemplate(t, srv.URL), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", v)
	}
	viewer, ok := m["viewer"].(map[string]any)
	if !ok || viewer["id"] != "u1" {
		t.Fatalf("got %v", m)
	}
}

func TestDoSurfacesUpstreamGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":null,"errors":[{"message":"not found"}]}`))
	}))
	defer srv.Close()

	d := New(httpdisp.New(httpdisp.DefaultOptions()))
	_, err := d.Do(context.Background(), newTemplate(t, srv.URL), nil)
	if err == nil {
		t.Fatalf("expected an error for a non-empty upstream errors array")
	}
}

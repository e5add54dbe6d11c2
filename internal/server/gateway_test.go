package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fluxweld/gatewing/internal/blueprint"
	"github.com/fluxweld/gatewing/internal/evalir"
	"github.com/fluxweld/gatewing/internal/schema"
)

func testGatewayBlueprint() *blueprint.Blueprint {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "user", Type: schema.NamedType("User")},
				},
			},
			"User": {
				Name: "User",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "id", Type: schema.NonNullType(schema.NamedType("ID"))},
					{Name: "name", Type: schema.NamedType("String")},
				},
			},
		},
	}
	resolvers := map[blueprint.FieldKey]evalir.IR{
		{Type: "Query", Field: "user"}: evalir.Func(func(ctx context.Context, rc *evalir.RequestContext, parent any) (any, error) {
			args, _ := rc.Vars["args"].(map[string]any)
			return map[string]any{"id": args["id"], "name": "Ada"}, nil
		}),
	}
	return &blueprint.Blueprint{Schema: sch, Resolvers: resolvers}
}

func TestGatewayHandlerExecutesQuery(t *testing.T) {
	gw := NewGateway(testGatewayBlueprint())
	body := `{"query":"query($id: ID!) { user(id: $id) { id name } }","variables":{"id":"u1"}}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	gw.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out specResult
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", out.Errors)
	}
	data, ok := out.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected map data, got %T", out.Data)
	}
	user, ok := data["user"].(map[string]any)
	if !ok || user["id"] != "u1" || user["name"] != "Ada" {
		t.Fatalf("got %v", data)
	}
}

func TestRESTGatewayUnwrapsSingleRootField(t *testing.T) {
	gw := NewGateway(testGatewayBlueprint())
	rest := NewRESTGateway(gw, []RESTRoute{
		{
			Method:       http.MethodGet,
			PathTemplate: "/users/{id}",
			Query:        "query($id: ID!) { user(id: $id) { id name } }",
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/users/u7", nil)
	rec := httptest.NewRecorder()
	rest.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["id"] != "u7" || out["name"] != "Ada" {
		t.Fatalf("expected unwrapped user object, got %v", out)
	}
}

func TestRESTGatewayNoRouteMatch404s(t *testing.T) {
	gw := NewGateway(testGatewayBlueprint())
	rest := NewRESTGateway(gw, []RESTRoute{
		{Method: http.MethodGet, PathTemplate: "/users/{id}", Query: "query($id: ID!) { user(id: $id) { id } }"},
	})

	req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	rec := httptest.NewRecorder()
	rest.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestServeHealthReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ServeHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["status"] != "ok" {
		t.Fatalf("got %v", out)
	}
}

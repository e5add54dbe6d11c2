package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxweld/gatewing/internal/config"
)

func TestRemoveUnusedPrunesUnreachableTypes(t *testing.T) {
	c := config.Config{
		Root: config.RootSchema{Query: "Query"},
		Types: map[string]*config.Type{
			"Query":    {Name: "Query", Kind: config.KindObject, Fields: map[string]*config.Field{"user": {Type: "User"}}},
			"User":     {Name: "User", Kind: config.KindObject, Fields: map[string]*config.Field{}},
			"Orphan":   {Name: "Orphan", Kind: config.KindObject, Fields: map[string]*config.Field{}},
		},
	}
	got := RemoveUnused(c)
	if !got.OK() {
		t.Fatalf("expected success")
	}
	result := got.Value()
	if _, ok := result.Types["Orphan"]; ok {
		t.Fatalf("expected Orphan to be pruned")
	}
	if _, ok := result.Types["User"]; !ok {
		t.Fatalf("expected User to survive (reachable via Query.user)")
	}
}

func TestAmbiguousTypeFlagsSharedFieldSets(t *testing.T) {
	c := config.Config{
		Types: map[string]*config.Type{
			"Book":  {Name: "Book", Kind: config.KindObject, Fields: map[string]*config.Field{"title": {Type: "String"}}},
			"Movie": {Name: "Movie", Kind: config.KindObject, Fields: map[string]*config.Field{"title": {Type: "String"}}},
		},
	}
	got := AmbiguousType(c)
	if got.OK() {
		t.Fatalf("expected ambiguity cause")
	}
}

func TestRenameTypesRewritesFieldReferences(t *testing.T) {
	c := config.Config{
		Root: config.RootSchema{Query: "Query"},
		Types: map[string]*config.Type{
			"Query": {Name: "Query", Kind: config.KindObject, Fields: map[string]*config.Field{"user": {Type: "[Person!]!"}}},
		},
	}
	got := RenameTypes(map[string]string{"Person": "User"})(c)
	if !got.OK() {
		t.Fatalf("expected success")
	}
	field := got.Value().Types["Query"].Fields["user"]
	if field.Type != "[User!]!" {
		t.Fatalf("got %q", field.Type)
	}
}

func TestEntityResolverMarksNonNullIDTypes(t *testing.T) {
	c := config.Config{
		Types: map[string]*config.Type{
			"User":  {Name: "User", Kind: config.KindObject, Fields: map[string]*config.Field{"id": {Type: "ID!"}}},
			"Money": {Name: "Money", Kind: config.KindObject, Fields: map[string]*config.Field{"amount": {Type: "Int!"}}},
		},
	}
	got := EntityResolver(c)
	if !got.Value().Types["User"].Entity {
		t.Fatalf("expected User to be marked as an entity")
	}
	if got.Value().Types["Money"].Entity {
		t.Fatalf("expected Money to not be marked as an entity")
	}
}

func TestTypeMergerMergesIdenticalFieldSets(t *testing.T) {
	c := config.Config{
		Root: config.RootSchema{Query: "Query"},
		Types: map[string]*config.Type{
			"Query":  {Name: "Query", Kind: config.KindObject, Fields: map[string]*config.Field{"widget": {Type: "Widget"}, "gadget": {Type: "Gadget"}}},
			"Widget": {Name: "Widget", Kind: config.KindObject, Fields: map[string]*config.Field{"name": {Type: "String"}}},
			"Gadget": {Name: "Gadget", Kind: config.KindObject, Fields: map[string]*config.Field{"name": {Type: "String"}}},
		},
	}
	got := TypeMerger(1.0)(c)
	require.True(t, got.OK())
	v := got.Value()
	_, stillPresent := v.Types["Gadget"]
	require.False(t, stillPresent, "expected Gadget to be merged away")
	require.Equal(t, "Widget", v.Types["Query"].Fields["gadget"].Type)
}

func TestConsolidateURLGroupsSameRouteFamily(t *testing.T) {
	c := config.Config{
		Types: map[string]*config.Type{
			"Query": {Name: "Query", Kind: config.KindObject, Fields: map[string]*config.Field{
				"user": {Resolver: &config.Resolver{Http: &config.HttpResolver{Method: "GET", URL: "/users/{id}"}}},
				"post": {Resolver: &config.Resolver{Http: &config.HttpResolver{Method: "GET", URL: "/users/{id}/posts/{postId}"}}},
			}},
		},
	}
	got := ConsolidateURL(0.5)(c)
	if got.OK() {
		t.Fatalf("expected an informational grouping cause")
	}
}

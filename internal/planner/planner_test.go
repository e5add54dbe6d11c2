package planner

import (
	"testing"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/fluxweld/gatewing/internal/blueprint"
	"github.com/fluxweld/gatewing/internal/evalir"
	"github.com/fluxweld/gatewing/internal/schema"
)

func testBlueprint() *blueprint.Blueprint {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "user", Type: schema.NamedType("User")},
					{Name: "users", Type: schema.ListType(schema.NamedType("User"))},
				},
			},
			"User": {
				Name: "User",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "id", Type: schema.NonNullType(schema.NamedType("ID"))},
					{Name: "name", Type: schema.NamedType("String")},
					{Name: "posts", Type: schema.ListType(schema.NamedType("Post"))},
				},
			},
			"Post": {
				Name: "Post",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "title", Type: schema.NamedType("String")},
				},
			},
		},
	}
	resolvers := map[blueprint.FieldKey]evalir.IR{
		{Type: "Query", Field: "user"}: evalir.Path{Expr: "id"},
		{Type: "User", Field: "posts"}: evalir.Path{Expr: "posts"},
	}
	return &blueprint.Blueprint{Schema: sch, Resolvers: resolvers}
}

func parseDoc(t *testing.T, src string) *ast.QueryDocument {
	t.Helper()
	doc, err := parser.ParseQuery(&ast.Source{Input: src})
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	return doc
}

func TestPlanResolvesFieldShapesAndResolvers(t *testing.T) {
	doc := parseDoc(t, `query { user(id: "u1") { id name posts { title } } }`)
	bp := testBlueprint()
	root, warnings, err := Plan(doc, "", nil, bp)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 root field, got %d", len(root.Children))
	}
	userNode := root.Children[0]
	if userNode.ResponseKey != "user" || userNode.Resolver == nil {
		t.Fatalf("expected user field to carry its resolver IR")
	}
	if userNode.Args["id"] != "u1" {
		t.Fatalf("expected id arg %q, got %v", "u1", userNode.Args["id"])
	}
	if userNode.IsList {
		t.Fatalf("user should not be a list field")
	}
	if userNode.TypeName != "User" {
		t.Fatalf("expected TypeName User, got %q", userNode.TypeName)
	}

	var postsNode *PlanNode
	for _, c := range userNode.Children {
		if c.ResponseKey == "posts" {
			postsNode = c
		}
	}
	if postsNode == nil || !postsNode.IsList {
		t.Fatalf("expected posts field to be a list")
	}
}

func TestPlanFlagsN1HazardOnRepeatedResolverUnderList(t *testing.T) {
	doc := parseDoc(t, `query { users { posts { title } } }`)
	bp := testBlueprint()
	bp.Resolvers[blueprint.FieldKey{Type: "Query", Field: "users"}] = evalir.Path{Expr: "all"}

	// Simulate a second selection of the same resolver-bearing field under
	// the same list ancestor path (e.g. via two fragments spreading the
	// same field) by planning the selection set twice against one tracker,
	// the condition the hazard check exists to catch.
	op := doc.Operations[0]
	tracker := newNPOTracker()
	var warnings []Warning
	planSelectionSet(op.SelectionSet, "Query", bp, nil, tracker, "", false, &warnings)
	planSelectionSet(op.SelectionSet, "Query", bp, nil, tracker, "", false, &warnings)

	if len(warnings) == 0 {
		t.Fatalf("expected at least one N+1 warning on repeated planning under the same tracker")
	}
}

func TestPlanUsesAliasAsResponseKey(t *testing.T) {
	doc := parseDoc(t, `query { u: user(id: "x") { id } }`)
	bp := testBlueprint()
	root, _, err := Plan(doc, "", nil, bp)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if root.Children[0].ResponseKey != "u" {
		t.Fatalf("expected alias 'u', got %q", root.Children[0].ResponseKey)
	}
}

func TestPlanUnknownOperationNameErrors(t *testing.T) {
	doc := parseDoc(t, `query { user(id: "x") { id } }`)
	bp := testBlueprint()
	if _, _, err := Plan(doc, "Missing", nil, bp); err == nil {
		t.Fatalf("expected error for unknown operation name")
	}
}

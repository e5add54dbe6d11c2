package config

import "testing"

// TestMergeRightTypeMismatchOnCollision is spec.md §8 scenario 6: two
// subgraphs declare `User.id` with incompatible base types. Merge must
// fail with the literal "Type mismatch" message rather than silently let
// one side clobber the other.
func TestMergeRightTypeMismatchOnCollision(t *testing.T) {
	a := Config{
		Root: RootSchema{Query: "Query"},
		Types: map[string]*Type{
			"Query": {Name: "Query", Kind: KindObject, Fields: map[string]*Field{
				"user": {Name: "user", Type: "User"},
			}},
			"User": {Name: "User", Kind: KindObject, Fields: map[string]*Field{
				"id": {Name: "id", Type: "ID!"},
			}},
		},
	}
	b := Config{
		Root: RootSchema{Query: "Query"},
		Types: map[string]*Type{
			"Query": {Name: "Query", Kind: KindObject, Fields: map[string]*Field{
				"user": {Name: "user", Type: "User"},
			}},
			"User": {Name: "User", Kind: KindObject, Fields: map[string]*Field{
				"id": {Name: "id", Type: "String!"},
			}},
		},
	}
	got := MergeRight(a, b)
	if got.OK() {
		t.Fatalf("expected merge failure for mismatched User.id types")
	}
	found := false
	for _, c := range got.Causes() {
		if c.Message == "Type mismatch: expected `ID`, got `String`" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a 'Type mismatch: expected `ID`, got `String`' cause, got %+v", got.Causes())
	}
}

// TestMergeRightExpandsOutputTypeNullability: User is only reachable from
// the root Query (output-only), so its id field expands — non-null only
// if BOTH sides declare it non-null.
func TestMergeRightExpandsOutputTypeNullability(t *testing.T) {
	a := Config{
		Root: RootSchema{Query: "Query"},
		Types: map[string]*Type{
			"Query": {Name: "Query", Kind: KindObject, Fields: map[string]*Field{"user": {Name: "user", Type: "User"}}},
			"User":  {Name: "User", Kind: KindObject, Fields: map[string]*Field{"id": {Name: "id", Type: "ID!"}}},
		},
	}
	b := Config{
		Root: RootSchema{Query: "Query"},
		Types: map[string]*Type{
			"Query": {Name: "Query", Kind: KindObject, Fields: map[string]*Field{"user": {Name: "user", Type: "User"}}},
			"User":  {Name: "User", Kind: KindObject, Fields: map[string]*Field{"id": {Name: "id", Type: "ID"}}},
		},
	}
	got := MergeRight(a, b)
	if !got.OK() {
		t.Fatalf("unexpected merge failure: %+v", got.Causes())
	}
	if field := got.Value().Types["User"].Fields["id"]; field.Type != "ID" {
		t.Fatalf("expected expanded (nullable) id type, got %q", field.Type)
	}
}

// TestMergeRightShrinksInputTypeNullability: Filter is only reachable from
// an argument position (input-only), so its field shrinks — non-null if
// EITHER side declares it non-null.
func TestMergeRightShrinksInputTypeNullability(t *testing.T) {
	a := Config{
		Root: RootSchema{Query: "Query"},
		Types: map[string]*Type{
			"Query": {Name: "Query", Kind: KindObject, Fields: map[string]*Field{
				"users": {Name: "users", Type: "[User]", Args: map[string]string{"filter": "Filter"}},
			}},
			"User":   {Name: "User", Kind: KindObject, Fields: map[string]*Field{"id": {Name: "id", Type: "ID!"}}},
			"Filter": {Name: "Filter", Kind: KindInput, Fields: map[string]*Field{"name": {Name: "name", Type: "String"}}},
		},
	}
	b := Config{
		Root: RootSchema{Query: "Query"},
		Types: map[string]*Type{
			"Query": {Name: "Query", Kind: KindObject, Fields: map[string]*Field{
				"users": {Name: "users", Type: "[User]", Args: map[string]string{"filter": "Filter"}},
			}},
			"User":   {Name: "User", Kind: KindObject, Fields: map[string]*Field{"id": {Name: "id", Type: "ID!"}}},
			"Filter": {Name: "Filter", Kind: KindInput, Fields: map[string]*Field{"name": {Name: "name", Type: "String!"}}},
		},
	}
	got := MergeRight(a, b)
	if !got.OK() {
		t.Fatalf("unexpected merge failure: %+v", got.Causes())
	}
	if field := got.Value().Types["Filter"].Fields["name"]; field.Type != "String!" {
		t.Fatalf("expected shrunk (non-null) name type, got %q", field.Type)
	}
}

// TestMergeRightFieldMissingOnOneSideMustBeNullable covers the
// FederatedMergeCollection shrink rule: an input field declared non-null
// on one side but entirely absent on the other can't be satisfied, so
// merge fails.
func TestMergeRightFieldMissingOnOneSideMustBeNullable(t *testing.T) {
	a := Config{
		Root: RootSchema{Query: "Query"},
		Types: map[string]*Type{
			"Query": {Name: "Query", Kind: KindObject, Fields: map[string]*Field{
				"users": {Name: "users", Type: "[User]", Args: map[string]string{"filter": "Filter"}},
			}},
			"User":   {Name: "User", Kind: KindObject, Fields: map[string]*Field{"id": {Name: "id", Type: "ID!"}}},
			"Filter": {Name: "Filter", Kind: KindInput, Fields: map[string]*Field{"name": {Name: "name", Type: "String"}}},
		},
	}
	b := Config{
		Root: RootSchema{Query: "Query"},
		Types: map[string]*Type{
			"Query": {Name: "Query", Kind: KindObject, Fields: map[string]*Field{
				"users": {Name: "users", Type: "[User]", Args: map[string]string{"filter": "Filter"}},
			}},
			"User": {Name: "User", Kind: KindObject, Fields: map[string]*Field{"id": {Name: "id", Type: "ID!"}}},
			"Filter": {Name: "Filter", Kind: KindInput, Fields: map[string]*Field{
				"name": {Name: "name", Type: "String"},
				"age":  {Name: "age", Type: "Int!"},
			}},
		},
	}
	got := MergeRight(a, b)
	if got.OK() {
		t.Fatalf("expected failure: 'age' is non_null on the right but absent on the left")
	}
}

func TestMergeRightTypeOnlyOnOneSidePassesThrough(t *testing.T) {
	a := Config{Types: map[string]*Type{"User": {Name: "User", Kind: KindObject}}}
	b := Config{Types: map[string]*Type{"Order": {Name: "Order", Kind: KindObject}}}
	got := MergeRight(a, b)
	if !got.OK() {
		t.Fatalf("unexpected failure: %+v", got.Causes())
	}
	if _, ok := got.Value().Types["User"]; !ok {
		t.Fatalf("expected User to pass through from a")
	}
	if _, ok := got.Value().Types["Order"]; !ok {
		t.Fatalf("expected Order to pass through from b")
	}
}

func TestMergeRootSchemaPrefersLeftWhenPresent(t *testing.T) {
	got := mergeRootSchema(RootSchema{Query: "Query"}, RootSchema{Query: "OtherQuery", Mutation: "Mutation"})
	if got.Query != "Query" {
		t.Fatalf("expected left Query to win, got %q", got.Query)
	}
	if got.Mutation != "Mutation" {
		t.Fatalf("expected right Mutation to fill in, got %q", got.Mutation)
	}
}

func TestShrinkEnumIntersectsVariants(t *testing.T) {
	a := &Enum{Name: "Status", Values: []string{"ACTIVE", "PENDING", "CLOSED"}}
	b := &Enum{Name: "Status", Values: []string{"ACTIVE", "CLOSED"}}
	got := shrinkEnum(a, b)
	if len(got.Values) != 2 {
		t.Fatalf("expected 2 surviving values, got %v", got.Values)
	}
}

func TestExpandEnumUnionsVariants(t *testing.T) {
	a := &Enum{Name: "Status", Values: []string{"ACTIVE"}}
	b := &Enum{Name: "Status", Values: []string{"CLOSED"}}
	got := expandEnum(a, b)
	if len(got.Values) != 2 {
		t.Fatalf("expected 2 values, got %v", got.Values)
	}
}

func TestMergeTypeStringsListShapeMismatch(t *testing.T) {
	_, cause := shrinkTypeString("[User]", "User")
	if cause == nil || cause.Message != "Type mismatch: expected list, got singular value" {
		t.Fatalf("expected list-shape mismatch cause, got %+v", cause)
	}
}

func TestMergeTypeStringsNestedLists(t *testing.T) {
	merged, cause := expandTypeString("[[ID!]!]!", "[[ID]!]!")
	if cause != nil {
		t.Fatalf("unexpected cause: %v", cause)
	}
	if merged != "[[ID]!]!" {
		t.Fatalf("expected inner non-null to expand away, got %q", merged)
	}
}

// Package planner compiles a parsed GraphQL query document into a PlanNode
// tree against a Blueprint, resolving each selected field to its IR (or to
// plain source passthrough) ahead of execution. Selection-set merging and
// operation/fragment lookup are grounded on the teacher's
// internal/executor.go collectFields/mergeSelectionSets/getOperation.
package planner

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/fluxweld/gatewing/internal/blueprint"
	"github.com/fluxweld/gatewing/internal/discriminator"
	"github.com/fluxweld/gatewing/internal/evalir"
)

// PlanNode is one selected field's compiled execution step.
type PlanNode struct {
	ResponseKey   string
	FieldName     string
	Args          map[string]any
	Resolver      evalir.IR // nil for plain source passthrough
	TypeName      string    // the field's named return type
	IsList        bool
	NonNull       bool
	Children      []*PlanNode
	Discriminator *discriminator.Discriminator
}

// Warning is a non-fatal planning observation, such as an N+1 hazard.
type Warning struct {
	Path    string
	Message string
}

// npoTracker records, per dotted response path, whether a resolver-bearing
// field has already been seen inside a list ancestor — a second sighting
// at the same path under a list is the N+1 shape the teacher's depth-wise
// batching executor exists to avoid, so planning surfaces it as a warning
// rather than silently accepting it.
type npoTracker struct {
	seen map[string]struct{}
}

func newNPOTracker() *npoTracker { return &npoTracker{seen: map[string]struct{}{}} }

// Plan compiles doc's selected operation against bp.
func Plan(doc *ast.QueryDocument, opName string, vars map[string]any, bp *blueprint.Blueprint) (*PlanNode, []Warning, error) {
	op, err := selectOperation(doc, opName)
	if err != nil {
		return nil, nil, err
	}
	rootTypeName := rootTypeFor(op, bp)
	if rootTypeName == "" {
		return nil, nil, fmt.Errorf("planner: schema has no root type for operation %q", op.Operation)
	}

	tracker := newNPOTracker()
	var warnings []Warning
	root := &PlanNode{ResponseKey: rootTypeName, FieldName: "", TypeName: rootTypeName}
	root.Children = planSelectionSet(op.SelectionSet, rootTypeName, bp, vars, tracker, rootTypeName, false, &warnings)
	return root, warnings, nil
}

func selectOperation(doc *ast.QueryDocument, opName string) (*ast.OperationDefinition, error) {
	if len(doc.Operations) == 0 {
		return nil, fmt.Errorf("planner: document has no operations")
	}
	if opName == "" {
		if len(doc.Operations) > 1 {
			return nil, fmt.Errorf("planner: operationName required when document has multiple operations")
		}
		return doc.Operations[0], nil
	}
	for _, op := range doc.Operations {
		if op.Name == opName {
			return op, nil
		}
	}
	return nil, fmt.Errorf("planner: unknown operation %q", opName)
}

func rootTypeFor(op *ast.OperationDefinition, bp *blueprint.Blueprint) string {
	switch op.Operation {
	case ast.Mutation:
		return bp.Schema.MutationType
	case ast.Subscription:
		return bp.Schema.SubscriptionType
	default:
		return bp.Schema.QueryType
	}
}

func planSelectionSet(sel ast.SelectionSet, typeName string, bp *blueprint.Blueprint, vars map[string]any, tracker *npoTracker, pathPrefix string, insideList bool, warnings *[]Warning) []*PlanNode {
	var out []*PlanNode
	for _, s := range sel {
		switch f := s.(type) {
		case *ast.Field:
			if f.Name == "__typename" {
				out = append(out, &PlanNode{ResponseKey: responseKey(f), FieldName: "__typename", TypeName: "String"})
				continue
			}
			node := planField(f, typeName, bp, vars, tracker, pathPrefix, insideList, warnings)
			out = append(out, node)
		case *ast.InlineFragment:
			targetType := typeName
			if f.TypeCondition != "" {
				targetType = f.TypeCondition
			}
			out = append(out, planSelectionSet(f.SelectionSet, targetType, bp, vars, tracker, pathPrefix, insideList, warnings)...)
		case *ast.FragmentSpread:
			if f.Definition != nil {
				targetType := typeName
				if f.Definition.TypeCondition != "" {
					targetType = f.Definition.TypeCondition
				}
				out = append(out, planSelectionSet(f.Definition.SelectionSet, targetType, bp, vars, tracker, pathPrefix, insideList, warnings)...)
			}
		}
	}
	return out
}

func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func planField(f *ast.Field, parentType string, bp *blueprint.Blueprint, vars map[string]any, tracker *npoTracker, pathPrefix string, insideList bool, warnings *[]Warning) *PlanNode {
	key := responseKey(f)
	path := pathPrefix + "." + key

	args := coerceArgs(f.Arguments, vars)
	ir, hasIR := bp.Resolver(parentType, f.Name)

	if hasIR && insideList {
		if _, seen := tracker.seen[pathPrefix+"."+f.Name]; seen {
			*warnings = append(*warnings, Warning{Path: path, Message: "resolver under a list ancestor may cause repeated per-item dispatch (N+1)"})
		}
		tracker.seen[pathPrefix+"."+f.Name] = struct{}{}
	}

	node := &PlanNode{ResponseKey: key, FieldName: f.Name, Args: args}
	if hasIR {
		node.Resolver = ir
	}

	returnType, isList, nonNull := fieldReturnType(parentType, f.Name, bp)
	node.TypeName = returnType
	node.IsList = isList
	node.NonNull = nonNull

	if f.SelectionSet != nil {
		node.Children = planSelectionSet(f.SelectionSet, returnType, bp, vars, tracker, path, insideList || isList, warnings)
	}
	return node
}

func fieldReturnType(parentType, fieldName string, bp *blueprint.Blueprint) (name string, isList, nonNull bool) {
	t, ok := bp.Schema.Types[parentType]
	if !ok {
		return "", false, false
	}
	for _, f := range t.Fields {
		if f.Name == fieldName {
			ref := f.Type
			nonNull = ref.IsNonNull()
			unwrapped := ref.Unwrap()
			if unwrapped.IsList() {
				isList = true
				unwrapped = unwrapped.Unwrap()
			}
			return unwrapped.GetNamedType(), isList, nonNull
		}
	}
	return "", false, false
}

func coerceArgs(args ast.ArgumentList, vars map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for _, a := range args {
		out[a.Name] = resolveArgValue(a.Value, vars)
	}
	return out
}

func resolveArgValue(v *ast.Value, vars map[string]any) any {
	if v == nil {
		return nil
	}
	if v.Kind == ast.Variable {
		return vars[v.Raw]
	}
	switch v.Kind {
	case ast.ListValue:
		out := make([]any, len(v.Children))
		for i, c := range v.Children {
			out[i] = resolveArgValue(c.Value, vars)
		}
		return out
	case ast.ObjectValue:
		out := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			out[c.Name] = resolveArgValue(c.Value, vars)
		}
		return out
	default:
		return v.Raw
	}
}

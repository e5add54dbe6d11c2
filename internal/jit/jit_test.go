package jit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluxweld/gatewing/internal/evalir"
	"github.com/fluxweld/gatewing/internal/planner"
)

type fakeIR struct {
	value any
	err   error
}

func (f fakeIR) Eval(ctx context.Context, rc *evalir.RequestContext, parent any) (any, error) {
	return f.value, f.err
}

func TestExecuteAssemblesNestedObjectPreservingOrder(t *testing.T) {
	root := &planner.PlanNode{
		Children: []*planner.PlanNode{
			{
				ResponseKey: "user",
				FieldName:   "user",
				Resolver:    fakeIR{value: map[string]any{"id": "u1", "name": "Ada"}},
				Children: []*planner.PlanNode{
					{ResponseKey: "name", FieldName: "name"},
					{ResponseKey: "id", FieldName: "id"},
				},
			},
		},
	}

	e := New()
	rc := &evalir.RequestContext{}
	res := e.Execute(context.Background(), root, rc)

	require.Empty(t, res.Errors)

	got, err := json.Marshal(res.Data)
	require.NoError(t, err)
	// The selection set asks for "name" before "id" (deliberately reversed
	// from map insertion order in the fake resolver's value) — P6 requires
	// the marshaled byte order to follow the selection set, not any
	// incidental order the underlying map[string]any happened to have.
	require.JSONEq(t, `{"user":{"name":"Ada","id":"u1"}}`, string(got))
	require.Equal(t, `{"user":{"name":"Ada","id":"u1"}}`, string(got))
}

func TestExecuteOrderedMapSurvivesNestedMarshal(t *testing.T) {
	root := &planner.PlanNode{
		Children: []*planner.PlanNode{
			{ResponseKey: "zebra", FieldName: "zebra", Resolver: fakeIR{value: "z"}},
			{ResponseKey: "apple", FieldName: "apple", Resolver: fakeIR{value: "a"}},
		},
	}
	e := New()
	res := e.Execute(context.Background(), root, &evalir.RequestContext{})
	got, err := json.Marshal(res.Data)
	require.NoError(t, err)
	require.Equal(t, `{"zebra":"z","apple":"a"}`, string(got))
}

func TestExecuteCollectsFieldErrorAtPath(t *testing.T) {
	boom := fakeIR{err: errors.New("boom")}
	root := &planner.PlanNode{
		Children: []*planner.PlanNode{
			{ResponseKey: "broken", FieldName: "broken", Resolver: boom},
		},
	}
	e := New()
	res := e.Execute(context.Background(), root, &evalir.RequestContext{})
	require.Len(t, res.Errors, 1)
	require.Equal(t, "broken", res.Errors[0].Path[0])
}

func TestExecuteMergesCacheControlAcrossFields(t *testing.T) {
	root := &planner.PlanNode{
		Children: []*planner.PlanNode{
			{ResponseKey: "a", FieldName: "a", Resolver: evalir.Cache{
				Child: fakeIR{value: "x"}, MaxAge: 60, Public: true,
			}},
			{ResponseKey: "b", FieldName: "b", Resolver: evalir.Cache{
				Child: fakeIR{value: "y"}, MaxAge: 30, Public: false,
			}},
		},
	}
	e := New()
	res := e.Execute(context.Background(), root, &evalir.RequestContext{})
	require.Equal(t, 30, res.CacheControl.MaxAge)
	require.False(t, res.CacheControl.Public)
}

func TestExecutePlainSourcePassthroughForFieldsWithoutResolver(t *testing.T) {
	root := &planner.PlanNode{
		Children: []*planner.PlanNode{
			{ResponseKey: "count", FieldName: "count"},
		},
	}
	e := New()
	rc := &evalir.RequestContext{}
	res := e.Execute(context.Background(), root, rc)
	require.Empty(t, res.Errors)
}

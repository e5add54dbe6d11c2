package valid

import "testing"

func TestFuseAccumulatesBothSides(t *testing.T) {
	a := Fail[int](Cause{Message: "bad a"})
	b := Fail[int](Cause{Message: "bad b"})
	got := Fuse(a, b, func(x, y int) int { return x + y })
	if got.OK() {
		t.Fatalf("expected failure")
	}
	if len(got.Causes()) != 2 {
		t.Fatalf("expected 2 accumulated causes, got %d", len(got.Causes()))
	}
}

func TestTracePrependsPath(t *testing.T) {
	v := Fail[int](Cause{Message: "oops", Path: []string{"field"}})
	traced := v.Trace("User")
	if traced.Causes()[0].Path[0] != "User" {
		t.Fatalf("expected traced path to start with User, got %v", traced.Causes()[0].Path)
	}
}

func TestCollectNeverShortCircuits(t *testing.T) {
	items := []Valid[int]{
		Succeed(1),
		Fail[int](Cause{Message: "x"}),
		Fail[int](Cause{Message: "y"}),
		Succeed(4),
	}
	got := Collect(items)
	if got.OK() {
		t.Fatalf("expected failure")
	}
	if len(got.Causes()) != 2 {
		t.Fatalf("expected all causes accumulated, got %d", len(got.Causes()))
	}
}

func TestMapPassesThroughFailure(t *testing.T) {
	v := Fail[int](Cause{Message: "bad"})
	got := Map(v, func(i int) string { return "x" })
	if got.OK() {
		t.Fatalf("expected failure to propagate through Map")
	}
}

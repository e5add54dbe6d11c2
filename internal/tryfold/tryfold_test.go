package tryfold

import (
	"testing"

	"github.com/fluxweld/gatewing/internal/valid"
)

func TestChainAccumulatesAcrossSteps(t *testing.T) {
	addOne := func(_ struct{}, acc int) valid.Valid[int] { return valid.Succeed(acc + 1) }
	fail := func(_ struct{}, acc int) valid.Valid[int] {
		return valid.Fail[int](valid.Cause{Message: "bad"})
	}
	chain := Chain[struct{}, int](addOne, fail, addOne)
	got := chain(struct{}{}, 0)
	if got.OK() {
		t.Fatalf("expected failure")
	}
	if len(got.Causes()) != 1 {
		t.Fatalf("expected exactly 1 cause, got %d", len(got.Causes()))
	}
}

func TestChainSucceeds(t *testing.T) {
	addOne := func(_ struct{}, acc int) valid.Valid[int] { return valid.Succeed(acc + 1) }
	chain := Chain[struct{}, int](addOne, addOne, addOne)
	got := chain(struct{}{}, 0)
	if !got.OK() || got.Value() != 3 {
		t.Fatalf("got %v ok=%v", got.Value(), got.OK())
	}
}

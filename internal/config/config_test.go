package config

import "testing"

func TestValidateFlagsUnknownInterface(t *testing.T) {
	c := &Config{Types: map[string]*Type{
		"User": {Name: "User", Kind: KindObject, Interfaces: []string{"Node"}},
	}}
	got := c.Validate()
	if got.OK() {
		t.Fatalf("expected failure for unknown interface Node")
	}
}

func TestBaseTypeNameStripsWrappers(t *testing.T) {
	if got := baseTypeName("[User!]!"); got != "User" {
		t.Fatalf("got %q", got)
	}
}

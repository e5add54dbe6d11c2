package config

import (
	"sort"
	"strings"

	"github.com/fluxweld/gatewing/internal/valid"
)

// MergeRight combines a (lower precedence) with b (higher precedence),
// porting the federation merge described in spec.md §4.3 and grounded on
// tailcall's core/config/config_module/merge.rs: Type::merge's non-null
// variance, Contravariant/Covariant's shrink/expand, and the generic
// FederatedMergeCollection shrink/expand over field and arg maps. Types
// colliding by name merge field-by-field instead of one side clobbering
// the other: a type reachable only from argument types shrinks (non-null
// wins if either side says non-null), a type reachable only from a root
// operation type expands (non-null only if both sides agree), and a type
// used both ways — or that can't be classified as either from what's
// reachable in this pair of configs — fails merging with a cause.
//
// merge.rs's own caller (core/config/config.rs, with its four-boolean
// is_self_input/is_self_output/is_other_input/is_other_output dispatch)
// was not part of this repo's retrieved original-source slice, so the
// dispatch below is reconstructed directly from spec.md §4.3's description
// using merge.rs's variance primitives, not transcribed from that file.
func MergeRight(a, b Config) valid.Valid[Config] {
	usageA := computeUsage(a)
	usageB := computeUsage(b)

	var causes []valid.Cause

	types := map[string]*Type{}
	for k, v := range a.Types {
		types[k] = v
	}
	for k, bv := range b.Types {
		av, collide := a.Types[k]
		if !collide {
			types[k] = bv
			continue
		}
		merged := mergeCollidingType(k, av, bv, usageA, usageB)
		if !merged.OK() {
			causes = append(causes, merged.Causes()...)
			continue
		}
		types[k] = merged.Value()
	}

	enums := map[string]*Enum{}
	for k, v := range a.Enums {
		enums[k] = v
	}
	for k, bv := range b.Enums {
		av, collide := a.Enums[k]
		if !collide {
			enums[k] = bv
			continue
		}
		merged := mergeCollidingEnum(k, av, bv, usageA, usageB)
		if !merged.OK() {
			causes = append(causes, merged.Causes()...)
			continue
		}
		enums[k] = merged.Value()
	}

	unions := map[string]*Union{}
	for k, v := range a.Unions {
		unions[k] = v
	}
	for k, bv := range b.Unions {
		av, collide := a.Unions[k]
		if !collide {
			unions[k] = bv
			continue
		}
		unions[k] = mergeUnion(av, bv)
	}

	out := Config{
		Types:  types,
		Enums:  enums,
		Unions: unions,
		Root:   mergeRootSchema(a.Root, b.Root),
	}
	out.Upstream = a.Upstream
	if b.Upstream != nil {
		out.Upstream = b.Upstream
	}
	out.Server = a.Server
	if b.Server != nil {
		out.Server = b.Server
	}

	return valid.FromSlice(out, causes)
}

// mergeRootSchema ports RootSchema::unify's unify_option: a field present
// on the left (self) wins even when the right also declares one: only an
// absent left field falls through to the right.
func mergeRootSchema(a, b RootSchema) RootSchema {
	return RootSchema{
		Query:        unifyOption(a.Query, b.Query),
		Mutation:     unifyOption(a.Mutation, b.Mutation),
		Subscription: unifyOption(a.Subscription, b.Subscription),
	}
}

func unifyOption(self, other string) string {
	if self != "" {
		return self
	}
	return other
}

// usage records, within one Config, which type names are reachable from
// argument position (input) versus from a root operation type (output) —
// Config.input_types()/output_types() per spec.md §4.3 (C3).
type usage struct {
	input  map[string]bool
	output map[string]bool
}

func computeUsage(c Config) usage {
	u := usage{input: map[string]bool{}, output: map[string]bool{}}
	visitedOut := map[string]bool{}
	visitedIn := map[string]bool{}

	var visitOutput, visitInput func(name string)

	visitOutput = func(name string) {
		if visitedOut[name] {
			return
		}
		visitedOut[name] = true
		u.output[name] = true
		if t, ok := c.Types[name]; ok {
			for _, f := range t.Fields {
				visitOutput(baseTypeName(f.Type))
				for _, argType := range f.Args {
					visitInput(baseTypeName(argType))
				}
			}
		}
		if un, ok := c.Unions[name]; ok {
			for _, member := range un.Types {
				visitOutput(member)
			}
		}
	}

	visitInput = func(name string) {
		if visitedIn[name] {
			return
		}
		visitedIn[name] = true
		u.input[name] = true
		if t, ok := c.Types[name]; ok {
			for _, f := range t.Fields {
				visitInput(baseTypeName(f.Type))
			}
		}
	}

	if c.Root.Query != "" {
		visitOutput(c.Root.Query)
	}
	if c.Root.Mutation != "" {
		visitOutput(c.Root.Mutation)
	}
	if c.Root.Subscription != "" {
		visitOutput(c.Root.Subscription)
	}

	return u
}

const (
	msgUsedBothWays  = "type is used both as input and output type that couldn't be merged for federation"
	msgCrossedUsage  = "type is used as input type in one subgraph and output type in another"
	msgCannotInfer   = "cannot infer the usage of type and therefore merge it from the subgraph"
	msgMissingRight  = "input field is marked as non_null on the right side, but is not present on the left side"
	msgMissingLeft   = "input field is marked as non_null on the left side, but is not present on the right side"
	msgArgMissingR   = "input arg is marked as non_null on the right side, but is not present on the left side"
	msgArgMissingL   = "input arg is marked as non_null on the left side, but is not present on the right side"
)

func classify(name string, ua, ub usage) (isInput, isOutput, usedBothWays, crossed bool) {
	inA, outA := ua.input[name], ua.output[name]
	inB, outB := ub.input[name], ub.output[name]

	usedBothWays = (inA && outA) || (inB && outB)
	crossed = (inA && !outA && outB && !inB) || (outA && !inA && inB && !outB)
	isInput = inA || inB
	isOutput = outA || outB
	return
}

func mergeCollidingType(name string, a, b *Type, ua, ub usage) valid.Valid[*Type] {
	isInput, isOutput, usedBothWays, crossed := classify(name, ua, ub)
	if usedBothWays {
		return valid.Fail[*Type](valid.Cause{Message: msgUsedBothWays, Path: []string{name}})
	}
	if crossed {
		return valid.Fail[*Type](valid.Cause{Message: msgCrossedUsage, Path: []string{name}})
	}
	switch {
	case isInput && !isOutput:
		return shrinkType(name, a, b)
	case isOutput && !isInput:
		return expandType(name, a, b)
	default:
		return valid.Fail[*Type](valid.Cause{Message: msgCannotInfer, Path: []string{name}})
	}
}

func mergeCollidingEnum(name string, a, b *Enum, ua, ub usage) valid.Valid[*Enum] {
	isInput, isOutput, usedBothWays, crossed := classify(name, ua, ub)
	if usedBothWays || crossed {
		if sameValues(a.Values, b.Values) {
			return valid.Succeed(a)
		}
		return valid.Fail[*Enum](valid.Cause{Message: msgUsedBothWays, Path: []string{name}})
	}
	switch {
	case isInput && !isOutput:
		return valid.Succeed(shrinkEnum(a, b))
	case isOutput && !isInput:
		return valid.Succeed(expandEnum(a, b))
	default:
		if sameValues(a.Values, b.Values) {
			return valid.Succeed(a)
		}
		return valid.Fail[*Enum](valid.Cause{Message: msgCannotInfer, Path: []string{name}})
	}
}

func shrinkEnum(a, b *Enum) *Enum {
	bSet := make(map[string]bool, len(b.Values))
	for _, v := range b.Values {
		bSet[v] = true
	}
	var kept []string
	for _, v := range a.Values {
		if bSet[v] {
			kept = append(kept, v)
		}
	}
	return &Enum{Name: a.Name, Values: kept}
}

func expandEnum(a, b *Enum) *Enum {
	return &Enum{Name: a.Name, Values: unionStrings(a.Values, b.Values)}
}

// mergeUnion merges two colliding unions by taking the union of their
// member sets: GraphQL unions can only appear in output position, so there
// is no shrink case to consider.
func mergeUnion(a, b *Union) *Union {
	return &Union{Name: a.Name, Types: unionStrings(a.Types, b.Types)}
}

func shrinkType(name string, a, b *Type) valid.Valid[*Type] {
	fields := shrinkFieldsMap(a.Fields, b.Fields)
	if !fields.OK() {
		return valid.Fail[*Type](traceAll(fields.Causes(), name)...)
	}
	return valid.Succeed(mergedTypeMeta(name, a, b, fields.Value()))
}

func expandType(name string, a, b *Type) valid.Valid[*Type] {
	fields := expandFieldsMap(a.Fields, b.Fields)
	if !fields.OK() {
		return valid.Fail[*Type](traceAll(fields.Causes(), name)...)
	}
	return valid.Succeed(mergedTypeMeta(name, a, b, fields.Value()))
}

func mergedTypeMeta(name string, a, b *Type, fields map[string]*Field) *Type {
	return &Type{
		Name:        name,
		Kind:        b.Kind,
		Description: mergeRightString(a.Description, b.Description),
		Fields:      fields,
		Interfaces:  unionStrings(a.Interfaces, b.Interfaces),
		Entity:      a.Entity || b.Entity,
	}
}

// shrinkFieldsMap ports FederatedMergeCollection's Contravariant impl: a
// field present only on the right must be nullable there (else the right
// side demands something the left can't supply); a field present only on
// the left must be nullable there too; fields present on both recursively
// shrink.
func shrinkFieldsMap(a, b map[string]*Field) valid.Valid[map[string]*Field] {
	out := map[string]*Field{}
	var causes []valid.Cause
	for name, bf := range b {
		af, ok := a[name]
		if !ok {
			if !isNullableTypeString(bf.Type) {
				causes = append(causes, valid.Cause{Message: msgMissingRight, Path: []string{name}})
				continue
			}
			out[name] = bf
			continue
		}
		merged := shrinkField(name, af, bf)
		if !merged.OK() {
			causes = append(causes, merged.Causes()...)
			continue
		}
		out[name] = merged.Value()
	}
	for name, af := range a {
		if _, ok := b[name]; ok {
			continue
		}
		if !isNullableTypeString(af.Type) {
			causes = append(causes, valid.Cause{Message: msgMissingLeft, Path: []string{name}})
			continue
		}
		out[name] = af
	}
	return valid.FromSlice(out, causes)
}

// expandFieldsMap ports the Covariant counterpart: fields union together,
// with no nullability requirement on the side missing a field — an output
// field simply isn't selectable on that side, which is always safe.
func expandFieldsMap(a, b map[string]*Field) valid.Valid[map[string]*Field] {
	out := map[string]*Field{}
	var causes []valid.Cause
	for name, bf := range b {
		af, ok := a[name]
		if !ok {
			out[name] = bf
			continue
		}
		merged := expandField(name, af, bf)
		if !merged.OK() {
			causes = append(causes, merged.Causes()...)
			continue
		}
		out[name] = merged.Value()
	}
	for name, af := range a {
		if _, ok := out[name]; ok {
			continue
		}
		if _, ok := b[name]; ok {
			continue
		}
		out[name] = af
	}
	return valid.FromSlice(out, causes)
}

func shrinkField(name string, a, b *Field) valid.Valid[*Field] {
	typeOf, cause := shrinkTypeString(a.Type, b.Type)
	if cause != nil {
		return valid.Fail[*Field](withPath(*cause, name))
	}
	args, argCauses := shrinkArgsMap(a.Args, b.Args)
	if len(argCauses) > 0 {
		return valid.Fail[*Field](traceAll(argCauses, name)...)
	}
	return valid.Succeed(mergedField(name, typeOf, args, a, b))
}

// expandField ports Covariant::expand for Field: the field's own return
// type expands, but its arguments always merge with shrink — arguments
// behave like inputs no matter how the containing field varies.
func expandField(name string, a, b *Field) valid.Valid[*Field] {
	typeOf, cause := expandTypeString(a.Type, b.Type)
	if cause != nil {
		return valid.Fail[*Field](withPath(*cause, name))
	}
	args, argCauses := shrinkArgsMap(a.Args, b.Args)
	if len(argCauses) > 0 {
		return valid.Fail[*Field](traceAll(argCauses, name)...)
	}
	return valid.Succeed(mergedField(name, typeOf, args, a, b))
}

func mergedField(name, typeOf string, args map[string]string, a, b *Field) *Field {
	return &Field{
		Name:      name,
		Type:      typeOf,
		Args:      args,
		Resolver:  mergeRightResolver(a.Resolver, b.Resolver),
		CacheSpec: mergeRightCache(a.CacheSpec, b.CacheSpec),
		Protected: mergeRightProtect(a.Protected, b.Protected),
	}
}

func shrinkArgsMap(a, b map[string]string) (map[string]string, []valid.Cause) {
	out := map[string]string{}
	var causes []valid.Cause
	for name, bt := range b {
		at, ok := a[name]
		if !ok {
			if !isNullableTypeString(bt) {
				causes = append(causes, valid.Cause{Message: msgArgMissingR, Path: []string{name}})
				continue
			}
			out[name] = bt
			continue
		}
		merged, cause := shrinkTypeString(at, bt)
		if cause != nil {
			causes = append(causes, withPath(*cause, name))
			continue
		}
		out[name] = merged
	}
	for name, at := range a {
		if _, ok := b[name]; ok {
			continue
		}
		if !isNullableTypeString(at) {
			causes = append(causes, valid.Cause{Message: msgArgMissingL, Path: []string{name}})
			continue
		}
		out[name] = at
	}
	return out, causes
}

func mergeRightResolver(a, b *Resolver) *Resolver {
	if b != nil {
		return b
	}
	return a
}

func mergeRightCache(a, b *CacheSpec) *CacheSpec {
	if b != nil {
		return b
	}
	return a
}

func mergeRightProtect(a, b *ProtectSpec) *ProtectSpec {
	if b != nil {
		return b
	}
	return a
}

func mergeRightString(a, b string) string {
	if b != "" {
		return b
	}
	return a
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func sameValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func withPath(c valid.Cause, segment string) valid.Cause {
	c.Path = append([]string{segment}, c.Path...)
	return c
}

func traceAll(causes []valid.Cause, segment string) []valid.Cause {
	out := make([]valid.Cause, len(causes))
	for i, c := range causes {
		out[i] = withPath(c, segment)
	}
	return out
}

func isNullableTypeString(t string) bool {
	return !strings.HasSuffix(strings.TrimSpace(t), "!")
}

// typeShape is a parsed GraphQL type string ([Foo!]! -> nested List/Named),
// mirroring core::Type::Named|List so the flat-string Field.Type/arg type
// can be merged level-by-level the way Type::merge does.
type typeShape struct {
	list    bool
	nonNull bool
	name    string     // valid only when !list
	elem    *typeShape // valid only when list
}

func parseTypeShape(s string) typeShape {
	nonNull := false
	if strings.HasSuffix(s, "!") {
		nonNull = true
		s = s[:len(s)-1]
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		elem := parseTypeShape(s[1 : len(s)-1])
		return typeShape{list: true, nonNull: nonNull, elem: &elem}
	}
	return typeShape{nonNull: nonNull, name: s}
}

func (t typeShape) String() string {
	var b strings.Builder
	if t.list {
		b.WriteByte('[')
		b.WriteString(t.elem.String())
		b.WriteByte(']')
	} else {
		b.WriteString(t.name)
	}
	if t.nonNull {
		b.WriteByte('!')
	}
	return b.String()
}

// shrinkTypeString merges two type strings with non_null-if-either variance.
func shrinkTypeString(expected, got string) (string, *valid.Cause) {
	return mergeTypeStrings(expected, got, func(x, y bool) bool { return x || y })
}

// expandTypeString merges two type strings with non_null-only-if-both variance.
func expandTypeString(expected, got string) (string, *valid.Cause) {
	return mergeTypeStrings(expected, got, func(x, y bool) bool { return x && y })
}

// mergeTypeStrings ports core::Type::merge: list-shape and base-name
// mismatches fail with the literal messages spec.md §8 scenario 6 expects.
func mergeTypeStrings(expected, got string, nonNullMerge func(bool, bool) bool) (string, *valid.Cause) {
	merged, cause := mergeShape(parseTypeShape(expected), parseTypeShape(got), nonNullMerge)
	if cause != nil {
		return "", cause
	}
	return merged.String(), nil
}

func mergeShape(a, b typeShape, nonNullMerge func(bool, bool) bool) (typeShape, *valid.Cause) {
	if a.list != b.list {
		return typeShape{}, &valid.Cause{Message: "Type mismatch: expected list, got singular value"}
	}
	if a.list {
		elem, cause := mergeShape(*a.elem, *b.elem, nonNullMerge)
		if cause != nil {
			return typeShape{}, cause
		}
		return typeShape{list: true, nonNull: nonNullMerge(a.nonNull, b.nonNull), elem: &elem}, nil
	}
	if a.name != b.name {
		return typeShape{}, &valid.Cause{Message: "Type mismatch: expected `" + a.name + "`, got `" + b.name + "`"}
	}
	return typeShape{nonNull: nonNullMerge(a.nonNull, b.nonNull), name: a.name}, nil
}

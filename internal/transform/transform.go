// Package transform implements the Config-to-Config passes applied before
// blueprint compilation, grounded on the teacher's internal/ir definition-
// graph walking (builddefinitions.go, buildimpl.go) generalized from
// "detect a problem" to "fix it in place".
package transform

import (
	"sort"
	"strings"

	"github.com/fluxweld/gatewing/internal/config"
	"github.com/fluxweld/gatewing/internal/valid"
)

// Transformer rewrites a Config, accumulating any causes it cannot resolve
// automatically (e.g. AmbiguousType's indistinguishable types).
type Transformer func(config.Config) valid.Valid[config.Config]

// RemoveUnused drops object/input types unreachable from any root
// operation field or from a reachable type's own fields, mirroring the
// teacher's reference-population reachability walk.
func RemoveUnused(c config.Config) valid.Valid[config.Config] {
	reachable := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if reachable[name] || c.IsScalar(name) {
			return
		}
		t, ok := c.Types[name]
		if !ok {
			return
		}
		reachable[name] = true
		for _, f := range t.Fields {
			visit(baseOf(f.Type))
		}
		for _, iface := range t.Interfaces {
			visit(iface)
		}
	}
	for _, root := range []string{c.Root.Query, c.Root.Mutation, c.Root.Subscription} {
		if root != "" {
			visit(root)
		}
	}
	pruned := map[string]*config.Type{}
	for name, t := range c.Types {
		if reachable[name] {
			pruned[name] = t
		}
	}
	c.Types = pruned
	return valid.Succeed(c)
}

func baseOf(t string) string {
	start, end := 0, len(t)
	for start < end && t[start] == '[' {
		start++
	}
	for end > start && (t[end-1] == ']' || t[end-1] == '!') {
		end--
	}
	return t[start:end]
}

// AmbiguousType flags (as causes, not fatal) object types that share an
// identical field-name set with another type, whatever their resolver
// directives, a condition the discriminator cannot resolve
// deterministically at runtime.
func AmbiguousType(c config.Config) valid.Valid[config.Config] {
	fieldSets := map[string][]string{}
	for name, t := range c.Types {
		if t.Kind != config.KindObject {
			continue
		}
		names := make([]string, 0, len(t.Fields))
		for fn := range t.Fields {
			names = append(names, fn)
		}
		sort.Strings(names)
		key := strings.Join(names, ",")
		fieldSets[key] = append(fieldSets[key], name)
	}
	var causes []valid.Cause
	for _, names := range fieldSets {
		if len(names) > 1 {
			causes = append(causes, valid.Cause{
				Message: "types " + strings.Join(names, ", ") + " share an identical field set and cannot be distinguished by the discriminator",
			})
		}
	}
	return valid.FromSlice(c, causes)
}

// RenameTypes applies a caller-supplied rename map across type
// definitions, field type references, interfaces, and root names.
func RenameTypes(renames map[string]string) Transformer {
	return func(c config.Config) valid.Valid[config.Config] {
		apply := func(name string) string {
			if r, ok := renames[name]; ok {
				return r
			}
			return name
		}
		newTypes := map[string]*config.Type{}
		for name, t := range c.Types {
			nt := *t
			nt.Name = apply(name)
			ifaces := make([]string, len(t.Interfaces))
			for i, iface := range t.Interfaces {
				ifaces[i] = apply(iface)
			}
			nt.Interfaces = ifaces
			newFields := map[string]*config.Field{}
			for fn, f := range t.Fields {
				nf := *f
				nf.Type = renameTypeExpr(f.Type, apply)
				newFields[fn] = &nf
			}
			nt.Fields = newFields
			newTypes[nt.Name] = &nt
		}
		c.Types = newTypes
		c.Root.Query = apply(c.Root.Query)
		c.Root.Mutation = apply(c.Root.Mutation)
		c.Root.Subscription = apply(c.Root.Subscription)
		return valid.Succeed(c)
	}
}

func renameTypeExpr(t string, apply func(string) string) string {
	prefix, suffix := "", ""
	for len(t) > 0 && t[0] == '[' {
		prefix += "["
		t = t[1:]
	}
	for len(t) > 0 && (t[len(t)-1] == ']' || t[len(t)-1] == '!') {
		suffix = string(t[len(t)-1]) + suffix
		t = t[:len(t)-1]
	}
	return prefix + apply(t) + suffix
}

// Linter accumulates style-only causes (type names shadowing a built-in
// scalar name; unused arguments are not checked) that a careful reviewer
// would flag but that do not
// block compilation; callers may choose to fail the build on any Linter
// cause or merely surface them as warnings.
func Linter(c config.Config) valid.Valid[config.Config] {
	var causes []valid.Cause
	for name := range c.Types {
		if c.IsScalar(name) {
			causes = append(causes, valid.Cause{Message: "type name " + name + " shadows a built-in scalar"})
		}
	}
	return valid.FromSlice(c, causes)
}

// ConsolidateURL groups @http resolvers whose rendered URL template differs
// only by a path parameter into one route family, reporting each family
// with more than one member as an informational cause; threshold is the
// Jaccard similarity over literal (non-parameter) path segments at or
// above which two URL templates are considered the same family. A threshold of
// 0 or below disables grouping.
func ConsolidateURL(threshold float64) Transformer {
	return func(c config.Config) valid.Valid[config.Config] {
		if threshold <= 0 {
			return valid.Succeed(c)
		}
		type route struct {
			label    string
			segments []string
		}
		var routes []route
		for tn, t := range c.Types {
			for fn, f := range t.Fields {
				if f.Resolver == nil || f.Resolver.Http == nil {
					continue
				}
				routes = append(routes, route{
					label:    tn + "." + fn,
					segments: literalSegments(f.Resolver.Http.URL),
				})
			}
		}
		sort.Slice(routes, func(i, j int) bool { return routes[i].label < routes[j].label })

		assigned := make([]bool, len(routes))
		var causes []valid.Cause
		for i := range routes {
			if assigned[i] {
				continue
			}
			family := []string{routes[i].label}
			for j := i + 1; j < len(routes); j++ {
				if assigned[j] {
					continue
				}
				if jaccard(routes[i].segments, routes[j].segments) >= threshold {
					family = append(family, routes[j].label)
					assigned[j] = true
				}
			}
			if len(family) > 1 {
				causes = append(causes, valid.Cause{
					Message: "resolvers " + strings.Join(family, ", ") + " share an upstream route family",
				})
			}
		}
		return valid.FromSlice(c, causes)
	}
}

// literalSegments splits an @http URL template into its non-parameter path
// segments, so two templates differing only in a {param} still compare
// equal on their literal route shape.
func literalSegments(url string) []string {
	var out []string
	for _, seg := range strings.Split(url, "/") {
		if seg == "" || (strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")) {
			continue
		}
		out = append(out, seg)
	}
	return out
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	set := map[string]int{}
	for _, s := range a {
		set[s] |= 1
	}
	for _, s := range b {
		set[s] |= 2
	}
	var inter, union int
	for _, bits := range set {
		union++
		if bits == 3 {
			inter++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// EntityResolver marks object types carrying a non-null "id" field as
// entities (Type.Entity). The blueprint compiler does not read the flag;
// no by-id request template is synthesized for unresolved fields.
func EntityResolver(c config.Config) valid.Valid[config.Config] {
	for _, t := range c.Types {
		if t.Kind != config.KindObject {
			continue
		}
		if f, ok := t.Fields["id"]; ok && strings.HasSuffix(f.Type, "!") && baseOf(f.Type) == "ID" {
			t.Entity = true
		}
	}
	return valid.Succeed(c)
}

// TypeMerger merges object types whose field-name sets are identical
// (Jaccard similarity 1.0 at or above threshold) into one canonical type,
// picked as the alphabetically-first name in the merged group, rewriting
// every field-type reference to point at the survivor. Conservative: it
// only merges when the sets match exactly, since a partial field overlap
// would silently drop fields from whichever type lost the merge.
func TypeMerger(threshold float64) Transformer {
	return func(c config.Config) valid.Valid[config.Config] {
		if threshold > 1 {
			return valid.Succeed(c)
		}
		names := make([]string, 0, len(c.Types))
		for n, t := range c.Types {
			if t.Kind == config.KindObject {
				names = append(names, n)
			}
		}
		sort.Strings(names)

		renames := map[string]string{}
		merged := map[string]bool{}
		for i, a := range names {
			if merged[a] {
				continue
			}
			setA := fieldNameSet(c.Types[a])
			for _, b := range names[i+1:] {
				if merged[b] {
					continue
				}
				setB := fieldNameSet(c.Types[b])
				if jaccard(setA, setB) >= threshold {
					renames[b] = a
					merged[b] = true
				}
			}
		}
		if len(renames) == 0 {
			return valid.Succeed(c)
		}
		// RenameTypes keys its rebuilt type map by the renamed name, so
		// every merged type's entry naturally collapses onto its
		// survivor's key; safe since a merge only fires on identical
		// field-name sets.
		return RenameTypes(renames)(c)
	}
}

func fieldNameSet(t *config.Type) []string {
	out := make([]string, 0, len(t.Fields))
	for fn := range t.Fields {
		out = append(out, fn)
	}
	return out
}

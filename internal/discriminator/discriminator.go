// Package discriminator resolves the concrete GraphQL type of a value behind
// a union or interface, replacing the teacher's grpcrt.ResolveType name-
// suffix heuristic with the sequential field-narrowing algorithm from
// tailcall's core/ir/discriminator.rs.
//
// A Discriminator holds, for each field name encountered across its ordered
// member list, two bitsets over MEMBER (type) indices: presentedIn (types
// that declare the field at all) and requiredIn (types that require it).
// Resolving a value walks the fields in the order they were first declared,
// narrowing the set of possible types one field at a time: present the
// field and you survive only among types that present it; omit the field
// and you survive only among types that don't require it. The set either
// collapses to one type (return it immediately), empties out (no match), or
// — if more than one type remains once every field has been considered —
// the earliest-declared survivor wins.
package discriminator

import (
	"math/bits"
	"strconv"
)

// Bitset is a fixed-width set of field-index bits, one or more uint64 words.
// It represents an observed value's present-field set, indexed by this
// Discriminator's (pruned) field order — see ValueBitset.
type Bitset []uint64

// NewBitset allocates a bitset able to index nBits field positions.
func NewBitset(nBits int) Bitset {
	words := (nBits + 63) / 64
	if words == 0 {
		words = 1
	}
	return make(Bitset, words)
}

// Set marks bit i as present.
func (b Bitset) Set(i int) {
	b[i/64] |= 1 << uint(i%64)
}

// Has reports whether bit i is present.
func (b Bitset) Has(i int) bool {
	if i/64 >= len(b) {
		return false
	}
	return b[i/64]&(1<<uint(i%64)) != 0
}

// repr is a bitset over member (candidate type) indices. D-I2: a
// Discriminator covers at most 64 members, so one machine word suffices.
type repr uint64

func allCovered(n int) repr {
	if n >= 64 {
		return ^repr(0)
	}
	return repr(1<<uint(n)) - 1
}

func (r repr) popcount() int    { return bits.OnesCount64(uint64(r)) }
func (r repr) isEmpty() bool    { return r == 0 }
func (r repr) lowestIndex() int { return bits.TrailingZeros64(uint64(r)) }

// MemberSpec describes one candidate concrete type feeding Discriminator
// construction: its full field set and the subset that is non-null
// (required) on that type.
type MemberSpec struct {
	TypeName string
	Fields   []string
	Required []string
}

// Discriminator resolves field-presence bitsets to a concrete type name for
// one abstract (union/interface) GraphQL type.
type Discriminator struct {
	AbstractType string
	Members      []string // ordered type names; index = bit position in presentedIn/requiredIn

	// fields, presentedIn and requiredIn are parallel slices, one entry per
	// surviving (pruned) field, in first-declared order across Members.
	fields      []string
	presentedIn []repr
	requiredIn  []repr

	fieldIndex map[string]int // field name -> position in fields, post-pruning
}

// New builds a Discriminator from an ordered member list (order matters: it
// fixes both the type-index bit positions used for tie-breaking and the
// field first-encounter order used for pruning). Returns an error if two
// members are indistinguishable (D-I1, equal field-set and required-set) or
// if there are more than 64 members (D-I2).
func New(abstractType string, members []MemberSpec) (*Discriminator, error) {
	n := len(members)
	if n > 64 {
		return nil, &TooManyMembersError{AbstractType: abstractType, Count: n}
	}

	if dup := findDuplicateMember(members); dup != nil {
		return nil, dup
	}

	var fieldOrder []string
	fieldIndex := map[string]int{}
	presentedIn := map[string]repr{}
	requiredIn := map[string]repr{}

	for i, m := range members {
		required := make(map[string]bool, len(m.Required))
		for _, f := range m.Required {
			required[f] = true
		}
		for _, f := range m.Fields {
			if _, ok := fieldIndex[f]; !ok {
				fieldIndex[f] = len(fieldOrder)
				fieldOrder = append(fieldOrder, f)
			}
			presentedIn[f] |= 1 << uint(i)
			if required[f] {
				requiredIn[f] |= 1 << uint(i)
			}
		}
	}

	memberNames := make([]string, n)
	for i, m := range members {
		memberNames[i] = m.TypeName
	}

	all := allCovered(n)
	prunedFields := make([]string, 0, len(fieldOrder))
	prunedPresented := make([]repr, 0, len(fieldOrder))
	prunedRequired := make([]repr, 0, len(fieldOrder))
	seen := map[[2]repr]bool{}
	for _, f := range fieldOrder {
		pres := presentedIn[f]
		req := requiredIn[f]
		if pres == all && req == 0 {
			// Present on every member and required by none: it can never
			// narrow the candidate set.
			continue
		}
		key := [2]repr{pres, req}
		if seen[key] {
			// A field whose presented-in and required-in sets both duplicate
			// an already kept field's adds no new narrowing power.
			continue
		}
		seen[key] = true
		prunedFields = append(prunedFields, f)
		prunedPresented = append(prunedPresented, pres)
		prunedRequired = append(prunedRequired, req)
	}

	idx := make(map[string]int, len(prunedFields))
	for i, f := range prunedFields {
		idx[f] = i
	}

	return &Discriminator{
		AbstractType: abstractType,
		Members:      memberNames,
		fields:       prunedFields,
		presentedIn:  prunedPresented,
		requiredIn:   prunedRequired,
		fieldIndex:   idx,
	}, nil
}

func findDuplicateMember(members []MemberSpec) *DuplicateMemberError {
	sig := func(m MemberSpec) (string, string) {
		return sortedJoin(m.Fields), sortedJoin(m.Required)
	}
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			fi, ri := sig(members[i])
			fj, rj := sig(members[j])
			if fi == fj && ri == rj {
				return &DuplicateMemberError{A: members[i].TypeName, B: members[j].TypeName}
			}
		}
	}
	return nil
}

func sortedJoin(ss []string) string {
	cp := append([]string(nil), ss...)
	for i := 1; i < len(cp); i++ {
		for j := i; j > 0 && cp[j-1] > cp[j]; j-- {
			cp[j-1], cp[j] = cp[j], cp[j-1]
		}
	}
	out := ""
	for _, s := range cp {
		out += s + ","
	}
	return out
}

// ValueBitset builds the present-field bitset for an observed value's field
// set (e.g. the decoded JSON object's keys, or a dynamicpb message's
// populated fields), against this discriminator's pruned field order. Field
// names not part of this Discriminator's schema are ignored — they carry no
// discriminating information by construction.
func (d *Discriminator) ValueBitset(presentFields []string) Bitset {
	b := NewBitset(len(d.fields))
	for _, f := range presentFields {
		if i, ok := d.fieldIndex[f]; ok {
			b.Set(i)
		}
	}
	return b
}

// Resolve returns the concrete type name for a value's present-field
// bitset, following resolve_type_for_single: walk the fields in
// first-declared order, narrowing the set of possible member types by one
// field at a time. A field the value presents keeps only the members that
// presentedIn it; a field the value omits keeps only the members that don't
// requiredIn it. Resolution short-circuits the moment exactly one member
// remains. If the set empties out, there is no match. If more than one
// member survives every field, the earliest-declared survivor wins —
// Resolve never reports an ambiguous match, only no match.
func (d *Discriminator) Resolve(value Bitset) (string, bool) {
	possible := allCovered(len(d.Members))
	for i, req := range d.requiredIn {
		if value.Has(i) {
			possible &= d.presentedIn[i]
		} else {
			possible &= ^req & allCovered(len(d.Members))
		}
		if possible.isEmpty() {
			return "", false
		}
		if possible.popcount() == 1 {
			return d.Members[possible.lowestIndex()], true
		}
	}
	if possible.isEmpty() {
		return "", false
	}
	return d.Members[possible.lowestIndex()], true
}

// TooManyMembersError reports a Discriminator built over more than 64
// members (D-I2): a single machine word cannot index that many types.
type TooManyMembersError struct {
	AbstractType string
	Count        int
}

func (e *TooManyMembersError) Error() string {
	return "discriminator: " + e.AbstractType + " has too many members (" + strconv.Itoa(e.Count) + " > 64)"
}

// DuplicateMemberError reports two members with identical (field-set,
// required-set) pairs (D-I1): they cannot be distinguished by any value.
type DuplicateMemberError struct {
	A, B string
}

func (e *DuplicateMemberError) Error() string {
	return "discriminator: union have equal types: " + e.A + " == " + e.B
}


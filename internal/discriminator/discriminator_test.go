package discriminator

import "testing"

func TestResolveByRequiredFields(t *testing.T) {
	d, err := New("SearchResult", []MemberSpec{
		{TypeName: "Book", Fields: []string{"title", "isbn"}, Required: []string{"isbn"}},
		{TypeName: "Movie", Fields: []string{"title", "runtime"}, Required: []string{"runtime"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bookVal := d.ValueBitset([]string{"title", "isbn"})
	got, ok := d.Resolve(bookVal)
	if !ok || got != "Book" {
		t.Fatalf("expected Book, got %q ok=%v", got, ok)
	}

	movieVal := d.ValueBitset([]string{"title", "runtime"})
	got, ok = d.Resolve(movieVal)
	if !ok || got != "Movie" {
		t.Fatalf("expected Movie, got %q ok=%v", got, ok)
	}
}

func TestResolveNoMatch(t *testing.T) {
	d, err := New("SearchResult", []MemberSpec{
		{TypeName: "Book", Fields: []string{"isbn"}, Required: []string{"isbn"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	val := d.ValueBitset([]string{"title"})
	if _, ok := d.Resolve(val); ok {
		t.Fatalf("expected no match")
	}
}

// TestResolveEmptyValueFallsBackToEarliestMember covers spec.md §8 scenario
// 3: union Shape = Circle | Square, both with entirely nullable fields, so
// RequiredIn is empty for every member. The empty value {} never disqualifies
// anyone, so resolution must fall through to the earliest-declared member
// rather than fail with no match.
func TestResolveEmptyValueFallsBackToEarliestMember(t *testing.T) {
	d, err := New("Shape", []MemberSpec{
		{TypeName: "Circle", Fields: []string{"radius"}},
		{TypeName: "Square", Fields: []string{"side"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	empty := d.ValueBitset(nil)
	got, ok := d.Resolve(empty)
	if !ok || got != "Circle" {
		t.Fatalf("expected Circle (earliest-declared tie-break), got %q ok=%v", got, ok)
	}
}

// TestResolveNarrowsAsMoreFieldsPresent exercises scenario 3's other half:
// once a value presents a field unique to one member, resolution narrows to
// that member even without any required fields.
func TestResolveNarrowsAsMoreFieldsPresent(t *testing.T) {
	d, err := New("Shape", []MemberSpec{
		{TypeName: "Circle", Fields: []string{"radius"}},
		{TypeName: "Square", Fields: []string{"side"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	val := d.ValueBitset([]string{"side"})
	got, ok := d.Resolve(val)
	if !ok || got != "Square" {
		t.Fatalf("expected Square, got %q ok=%v", got, ok)
	}
}

func TestNewRejectsDuplicateMembers(t *testing.T) {
	_, err := New("SearchResult", []MemberSpec{
		{TypeName: "Book", Fields: []string{"title"}, Required: []string{"title"}},
		{TypeName: "Pamphlet", Fields: []string{"title"}, Required: []string{"title"}},
	})
	if err == nil {
		t.Fatalf("expected duplicate-member error")
	}
	if _, ok := err.(*DuplicateMemberError); !ok {
		t.Fatalf("expected *DuplicateMemberError, got %T", err)
	}
}

func TestNewRejectsTooManyMembers(t *testing.T) {
	members := make([]MemberSpec, 65)
	for i := range members {
		members[i] = MemberSpec{TypeName: string(rune('A' + i)), Fields: []string{"f"}}
	}
	_, err := New("Huge", members)
	if err == nil {
		t.Fatalf("expected too-many-members error")
	}
	if _, ok := err.(*TooManyMembersError); !ok {
		t.Fatalf("expected *TooManyMembersError, got %T", err)
	}
}

func TestFieldPresentOnEveryMemberIsPrunedAndIgnored(t *testing.T) {
	// "title" is common to both members and carries no discriminating
	// information; resolution must still work off the distinguishing fields.
	d, err := New("SearchResult", []MemberSpec{
		{TypeName: "Book", Fields: []string{"title", "isbn"}, Required: []string{"isbn"}},
		{TypeName: "Movie", Fields: []string{"title", "runtime"}, Required: []string{"runtime"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := d.fieldIndex["title"]; ok {
		t.Fatalf("expected 'title' to be pruned as present on every member")
	}
}

func TestBitsetAcrossWordBoundary(t *testing.T) {
	b := NewBitset(130)
	b.Set(129)
	if !b.Has(129) {
		t.Fatalf("expected bit 129 set")
	}
	if b.Has(128) {
		t.Fatalf("expected bit 128 unset")
	}
	if len(b) != 3 {
		t.Fatalf("expected 3 words for 130 bits, got %d", len(b))
	}
}

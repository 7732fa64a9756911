package resolve

import (
	"testing"
)

type entry struct {
	name string
}

func names(ss ...string) []entry {
	out := make([]entry, len(ss))
	for i, s := range ss {
		out[i] = entry{name: s}
	}
	return out
}

func field(e entry) string { return e.name }

func TestExactMatchHasZeroDistance(t *testing.T) {
	coll := names("Acheter du pain", "Appeler le dentiste")
	m, ok := BestMatch(coll, "Acheter du pain", field, KindTask)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Index != 0 || m.Distance != 0 {
		t.Errorf("match = %+v, want index 0 distance 0", m)
	}
}

func TestFuzzyMatchAcceptedAtTaskThreshold(t *testing.T) {
	coll := names("Acheter du pain")
	m, ok := BestMatch(coll, "achete du pain", field, KindTask)
	if !ok {
		t.Fatal("near query should be accepted")
	}
	if m.Index != 0 {
		t.Errorf("index = %d", m.Index)
	}
	if m.Distance <= 0 || m.Distance >= 0.6 {
		t.Errorf("distance = %f, want in (0, 0.6)", m.Distance)
	}
}

func TestUnrelatedQueryRejected(t *testing.T) {
	coll := names("Acheter du pain")
	if _, ok := BestMatch(coll, "totally unrelated text", field, KindTask); ok {
		t.Error("unrelated query must be rejected")
	}
}

func TestTieBreakKeepsCollectionOrder(t *testing.T) {
	// Both entries are at identical distance from the query.
	coll := names("pan", "pin")
	m, ok := BestMatch(coll, "pen", field, KindTask)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Index != 0 {
		t.Errorf("tie should keep the first entry, got index %d", m.Index)
	}
}

func TestCaseInsensitive(t *testing.T) {
	coll := names("Call Mom")
	m, ok := BestMatch(coll, "call mom", field, KindTask)
	if !ok || m.Distance != 0 {
		t.Errorf("case-insensitive match failed: ok=%v m=%+v", ok, m)
	}
}

func TestEmptyInputs(t *testing.T) {
	if _, ok := BestMatch(nil, "x", field, KindTask); ok {
		t.Error("empty collection must not match")
	}
	if _, ok := BestMatch(names("a"), "   ", field, KindTask); ok {
		t.Error("blank query must not match")
	}
}

func TestStricterKindRejectsWhatTaskAccepts(t *testing.T) {
	coll := names("Martin")
	if _, ok := BestMatch(coll, "Marvin Gaye", field, KindContact); ok {
		t.Error("contact threshold should reject a weak match")
	}
	if _, ok := BestMatch(coll, "Martin", field, KindContact); !ok {
		t.Error("exact contact name must match")
	}
}

func TestNoteTitleStricterThanNoteBody(t *testing.T) {
	// "meeting notes from monday" against "meeting" normalizes to 18/25,
	// which the loose body threshold accepts and the title one rejects.
	coll := names("meeting")
	if _, ok := BestMatch(coll, "meeting notes from monday", field, KindNote); !ok {
		t.Error("note body threshold should accept the match")
	}
	if _, ok := BestMatch(coll, "meeting notes from monday", field, KindNoteTitle); ok {
		t.Error("note title threshold should reject the match")
	}
	if _, ok := BestMatch(coll, "meating", field, KindNoteTitle); !ok {
		t.Error("close note title must match")
	}
}

func TestOrdinalResolution(t *testing.T) {
	coll := names("alpha", "beta", "gamma")

	cases := []struct {
		query string
		want  int
		ok    bool
	}{
		{"first", 0, true},
		{"the second one", 1, true},
		{"3rd", 2, true},
		{"last", 2, true},
		{"fourth", 0, false},
		{"banana", 0, false},
	}
	for _, c := range cases {
		idx, ok := Ordinal(c.query, len(coll))
		if ok != c.ok || (ok && idx != c.want) {
			t.Errorf("Ordinal(%q) = (%d, %v), want (%d, %v)", c.query, idx, ok, c.want, c.ok)
		}
	}

	// Ordinal bypasses distance: "second" is nothing like "beta" yet resolves.
	m, ok := BestMatch(coll, "the second one", field, KindTask)
	if !ok || m.Index != 1 {
		t.Errorf("ordinal BestMatch = (%+v, %v)", m, ok)
	}
}

// Package resolve matches free-text spoken references against live organizer
// collections using normalized edit distance, with per-entity-kind acceptance
// thresholds and ordinal-word shortcuts ("the second one").
//
// The resolver is read-only: it never mutates the collections it inspects.
package resolve

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Kind identifies the entity kind being resolved. Thresholds are configured
// per kind, not per call site.
type Kind int

const (
	KindTask Kind = iota
	KindShoppingItem
	KindNote
	KindNoteTitle
	KindCustomList
	KindListItem
	KindProject
	KindContact
	KindCalendarEvent
	KindEmail
)

// thresholds maps each kind to its maximum accepted normalized distance.
// Short name-like fields are strict; long free-text fields (note bodies)
// tolerate more drift from speech recognition.
var thresholds = map[Kind]float64{
	KindTask:          0.6,
	KindShoppingItem:  0.6,
	KindNote:          0.75,
	KindNoteTitle:     0.5,
	KindCustomList:    0.5,
	KindListItem:      0.6,
	KindProject:       0.45,
	KindContact:       0.45,
	KindCalendarEvent: 0.5,
	KindEmail:         0.6,
}

// Threshold returns the acceptance threshold for a kind.
func Threshold(k Kind) float64 {
	if t, ok := thresholds[k]; ok {
		return t
	}
	return 0.5
}

// Distance returns the normalized, case-insensitive edit distance between
// two strings: edits / max(len(a), len(b)), in [0, 1]. Used for
// near-duplicate detection on creation.
func Distance(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	n := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if n == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(n)
}

// Match is an accepted resolution.
type Match struct {
	// Index into the input collection.
	Index int

	// Distance is the normalized edit distance of the winning candidate.
	Distance float64
}

// BestMatch finds the collection entry whose selected field is closest to
// query. The candidate with the lowest normalized distance wins; exact ties
// keep the first entry in collection order. The minimum is accepted only if
// its normalized distance is strictly below the kind's threshold.
//
// If query is an ordinal reference ("first", "2nd", ...), distance
// computation is bypassed and the ordinal position is returned directly.
func BestMatch[T any](collection []T, query string, field func(T) string, kind Kind) (Match, bool) {
	if len(collection) == 0 {
		return Match{}, false
	}
	if idx, ok := Ordinal(query, len(collection)); ok {
		return Match{Index: idx}, true
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Match{}, false
	}
	qLen := utf8.RuneCountInString(q)

	best := Match{Index: -1}
	for i, item := range collection {
		f := strings.ToLower(strings.TrimSpace(field(item)))
		fLen := utf8.RuneCountInString(f)
		n := max(qLen, fLen)
		if n == 0 {
			continue
		}
		d := float64(levenshtein.ComputeDistance(q, f)) / float64(n)
		if best.Index < 0 || d < best.Distance {
			best = Match{Index: i, Distance: d}
		}
	}
	if best.Index < 0 || best.Distance >= Threshold(kind) {
		return Match{}, false
	}
	return best, true
}

package resolve

import "strings"

// ordinalWords maps ordinal vocabulary to zero-based positions.
var ordinalWords = map[string]int{
	"first": 0, "1st": 0,
	"second": 1, "2nd": 1,
	"third": 2, "3rd": 2,
	"fourth": 3, "4th": 3,
	"fifth": 4, "5th": 4,
	"sixth": 5, "6th": 5,
	"seventh": 6, "7th": 6,
	"eighth": 7, "8th": 7,
	"ninth": 8, "9th": 8,
	"tenth": 9, "10th": 9,
}

// Ordinal resolves an ordinal reference against an ordered result set of the
// given length. Leading articles ("the first one") are stripped. "last"
// resolves to the final position.
func Ordinal(query string, length int) (int, bool) {
	if length <= 0 {
		return 0, false
	}
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.TrimPrefix(q, "the ")
	q = strings.TrimSuffix(q, " one")
	q = strings.TrimSuffix(q, " item")
	q = strings.TrimSpace(q)

	if q == "last" {
		return length - 1, true
	}
	idx, ok := ordinalWords[q]
	if !ok || idx >= length {
		return 0, false
	}
	return idx, true
}

package engine

import (
	"math"
	"sort"
)

// Unlimited disables truncation in a Selection.
const Unlimited = -1

// Selection is the resolved filter/limit request.
type Selection struct {
	// Predicate is matched exactly; empty selects every record.
	Predicate string
	// TopN caps the result; Unlimited (any negative value) keeps all.
	TopN int
}

// All selects every record without truncation.
func All() Selection {
	return Selection{TopN: Unlimited}
}

// Select filters by predicate, ranks by exposure descending and truncates.
// Ties keep their input order. The input slice is not modified.
func Select(records []ServiceRecord, sel Selection) []ServiceRecord {
	selected := make([]ServiceRecord, 0, len(records))
	for _, r := range records {
		if sel.Predicate == "" || r.Predicate == sel.Predicate {
			selected = append(selected, r)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return exposureAbove(selected[i].Exposure, selected[j].Exposure)
	})

	if sel.TopN >= 0 && sel.TopN < len(selected) {
		selected = selected[:sel.TopN]
	}
	return selected
}

// exposureAbove orders by exposure descending. NaN compares equal to
// everything so the sort stays deterministic.
func exposureAbove(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return a > b
}

package domain

import "sort"

// Reconciliation partitions an expected tag set against a scanned tag set.
// Matched ∪ Missing = expected, Matched ∪ Extra = scanned, the three parts
// are pairwise disjoint. Slices are sorted for deterministic output.
type Reconciliation struct {
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`
	Extra   []string `json:"extra"`
}

// Reconcile compares expected against scanned EPCs. Comparison is exact and
// case-sensitive: EPCs are canonical hex strings and must not be normalized.
func Reconcile(expected, scanned []string) Reconciliation {
	expectedSet := toSet(expected)
	scannedSet := toSet(scanned)

	result := Reconciliation{
		Matched: []string{},
		Missing: []string{},
		Extra:   []string{},
	}
	for tag := range expectedSet {
		if _, ok := scannedSet[tag]; ok {
			result.Matched = append(result.Matched, tag)
		} else {
			result.Missing = append(result.Missing, tag)
		}
	}
	for tag := range scannedSet {
		if _, ok := expectedSet[tag]; !ok {
			result.Extra = append(result.Extra, tag)
		}
	}

	sort.Strings(result.Matched)
	sort.Strings(result.Missing)
	sort.Strings(result.Extra)
	return result
}

// IsPerfect reports whether nothing is missing and nothing is extra. This is
// the gate for an unconditional stage advance; an imperfect result still
// allows an operator override, but the discrepancy lists must be persisted.
func (r Reconciliation) IsPerfect() bool {
	return len(r.Missing) == 0 && len(r.Extra) == 0
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}

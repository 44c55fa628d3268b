package domain

import (
	"reflect"
	"testing"
)

func TestReconcilePartitions(t *testing.T) {
	tests := []struct {
		name     string
		expected []string
		scanned  []string
		matched  []string
		missing  []string
		extra    []string
		perfect  bool
	}{
		{
			name:     "partial scan",
			expected: []string{"A", "B", "C"},
			scanned:  []string{"A", "B"},
			matched:  []string{"A", "B"},
			missing:  []string{"C"},
			extra:    []string{},
			perfect:  false,
		},
		{
			name:     "exact match",
			expected: []string{"E1", "E2"},
			scanned:  []string{"E2", "E1"},
			matched:  []string{"E1", "E2"},
			missing:  []string{},
			extra:    []string{},
			perfect:  true,
		},
		{
			name:     "empty expected makes everything extra",
			expected: nil,
			scanned:  []string{"X", "Y"},
			matched:  []string{},
			missing:  []string{},
			extra:    []string{"X", "Y"},
			perfect:  false,
		},
		{
			name:     "empty scanned makes everything missing",
			expected: []string{"X", "Y"},
			scanned:  nil,
			matched:  []string{},
			missing:  []string{"X", "Y"},
			extra:    []string{},
			perfect:  false,
		},
		{
			name:     "case sensitive EPC comparison",
			expected: []string{"abc123"},
			scanned:  []string{"ABC123"},
			matched:  []string{},
			missing:  []string{"abc123"},
			extra:    []string{"ABC123"},
			perfect:  false,
		},
		{
			name:     "both empty",
			expected: nil,
			scanned:  nil,
			matched:  []string{},
			missing:  []string{},
			extra:    []string{},
			perfect:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.expected, tt.scanned)
			if !reflect.DeepEqual(got.Matched, tt.matched) {
				t.Fatalf("Matched = %v, want %v", got.Matched, tt.matched)
			}
			if !reflect.DeepEqual(got.Missing, tt.missing) {
				t.Fatalf("Missing = %v, want %v", got.Missing, tt.missing)
			}
			if !reflect.DeepEqual(got.Extra, tt.extra) {
				t.Fatalf("Extra = %v, want %v", got.Extra, tt.extra)
			}
			if got.IsPerfect() != tt.perfect {
				t.Fatalf("IsPerfect() = %v, want %v", got.IsPerfect(), tt.perfect)
			}
		})
	}
}

func TestReconcileSetAlgebra(t *testing.T) {
	expected := []string{"A", "B", "C", "D"}
	scanned := []string{"B", "C", "E", "F"}

	got := Reconcile(expected, scanned)

	union := append(append([]string{}, got.Matched...), got.Missing...)
	if !sameSet(union, expected) {
		t.Fatalf("Matched ∪ Missing = %v, want the expected set %v", union, expected)
	}
	union = append(append([]string{}, got.Matched...), got.Extra...)
	if !sameSet(union, scanned) {
		t.Fatalf("Matched ∪ Extra = %v, want the scanned set %v", union, scanned)
	}
	for _, tag := range got.Matched {
		if contains(got.Missing, tag) || contains(got.Extra, tag) {
			t.Fatalf("tag %q appears in more than one partition", tag)
		}
	}
}

func TestReconcileDeduplicatesInput(t *testing.T) {
	got := Reconcile([]string{"A", "A", "B"}, []string{"B", "B"})
	if len(got.Matched) != 1 || got.Matched[0] != "B" {
		t.Fatalf("Matched = %v, want [B]", got.Matched)
	}
	if len(got.Missing) != 1 || got.Missing[0] != "A" {
		t.Fatalf("Missing = %v, want [A]", got.Missing)
	}
}

func sameSet(a, b []string) bool {
	if len(toSet(a)) != len(toSet(b)) {
		return false
	}
	set := toSet(b)
	for _, v := range a {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

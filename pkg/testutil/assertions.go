package testutil

import (
	"testing"
)

// AssertKeys verifies an ordered key list matches exactly.
func AssertKeys(t *testing.T, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected keys %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected keys %v, got %v", want, got)
		}
	}
}

// AssertKeySet verifies two key collections hold the same members,
// ignoring order.
func AssertKeySet(t *testing.T, got []int, want []int) {
	t.Helper()
	gotSet := make(map[int]bool, len(got))
	for _, k := range got {
		gotSet[k] = true
	}
	wantSet := make(map[int]bool, len(want))
	for _, k := range want {
		wantSet[k] = true
	}
	if len(gotSet) != len(wantSet) {
		t.Fatalf("expected key set %v, got %v", want, got)
	}
	for k := range wantSet {
		if !gotSet[k] {
			t.Fatalf("expected key set %v, got %v (missing %d)", want, got, k)
		}
	}
}

// AssertStrings verifies an ordered string list matches exactly.
func AssertStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

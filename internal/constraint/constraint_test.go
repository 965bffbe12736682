package constraint

import (
	"testing"

	"github.com/rawblock/tametsi-solver/internal/bitset"
)

func mask(cells ...int) bitset.Set {
	var b bitset.Set
	for _, c := range cells {
		b.Set(c)
	}
	return b
}

func TestCrossSubsetSubtraction(t *testing.T) {
	l := New(mask(0, 1, 2), 1, 1)
	r := New(mask(0, 1), 1, 1)

	derived := Cross(l, r)

	var sawSolvedCell2 bool
	for _, c := range derived {
		if c.Bits == mask(2) {
			if !c.IsSolved() || !c.AllSafe() {
				t.Fatalf("expected {2} to be a solved all-safe constraint, got %s", c)
			}
			sawSolvedCell2 = true
		}
	}
	if !sawSolvedCell2 {
		t.Fatalf("expected Cross to derive a constraint over {2}, got %v", derived)
	}
}

func TestCrossSymmetric(t *testing.T) {
	l := New(mask(0, 1, 2), 2, 2)
	r := New(mask(1, 2, 3), 1, 2)

	forward := Cross(l, r)
	backward := Cross(r, l)

	if len(forward) != len(backward) {
		t.Fatalf("expected Cross(l,r) and Cross(r,l) to produce the same number of constraints, got %d vs %d",
			len(forward), len(backward))
	}

	byRegion := make(map[bitset.Set]Constraint, len(forward))
	for _, c := range forward {
		byRegion[c.Bits] = c
	}
	for _, c := range backward {
		match, ok := byRegion[c.Bits]
		if !ok {
			t.Fatalf("region %s present in Cross(r,l) but not Cross(l,r)", c.Bits)
		}
		if match.Min != c.Min || match.Max != c.Max {
			t.Fatalf("region %s disagrees between orderings: %v vs %v", c.Bits, match, c)
		}
	}
}

func TestIsUselessAndIsSolved(t *testing.T) {
	useless := New(mask(0, 1, 2), 0, 3)
	if !useless.IsUseless() {
		t.Fatal("expected [0,3] over 3 cells to be useless")
	}

	allSafe := New(mask(0, 1), 0, 0)
	if !allSafe.IsSolved() || !allSafe.AllSafe() {
		t.Fatal("expected [0,0] to be solved and all-safe")
	}

	allMines := New(mask(0, 1), 2, 2)
	if !allMines.IsSolved() || allMines.AllSafe() {
		t.Fatal("expected [2,2] over 2 cells to be solved and all-mines")
	}
}

func TestStoreAddTightensExistingConstraint(t *testing.T) {
	st := NewStore(8)

	if err := st.Add(New(mask(0, 1, 2), 0, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Add(New(mask(0, 1, 2), 1, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	live := st.Live()
	if len(live) != 1 {
		t.Fatalf("expected exactly one live constraint after tightening, got %d", len(live))
	}
	if live[0].Min != 1 || live[0].Max != 1 {
		t.Fatalf("expected tightened bounds [1,1], got [%d,%d]", live[0].Min, live[0].Max)
	}
}

func TestStoreAddDetectsInconsistency(t *testing.T) {
	st := NewStore(8)

	if err := st.Add(New(mask(0, 1, 2), 2, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := st.Add(New(mask(0, 1, 2), 0, 1))
	if err == nil {
		t.Fatal("expected an InconsistentError when tightening to Min > Max")
	}
	if _, ok := err.(*InconsistentError); !ok {
		t.Fatalf("expected *InconsistentError, got %T", err)
	}
}

func TestStorePopNextSmallestSizeFirst(t *testing.T) {
	st := NewStore(8)

	if err := st.Add(New(mask(0, 1, 2, 3), 1, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Add(New(mask(4, 5), 1, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, ok := st.PopNext()
	if !ok {
		t.Fatal("expected a constraint to pop")
	}
	if c.Size != 2 {
		t.Fatalf("expected the size-2 constraint to pop first, got size %d", c.Size)
	}
}

func TestStoreRemoveTombstonesQueuedCopy(t *testing.T) {
	st := NewStore(8)
	c := New(mask(0, 1), 1, 1)
	if err := st.Add(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st.Remove(c)

	if _, ok := st.PopNext(); ok {
		t.Fatal("expected PopNext to skip the removed, tombstoned constraint")
	}
}

func TestStoreDrainSolvedSeparatesRevealFromFlag(t *testing.T) {
	st := NewStore(8)
	if err := st.Add(New(mask(0, 1), 0, 0)); err != nil { // all safe
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Add(New(mask(2), 1, 1)); err != nil { // all mine
		t.Fatalf("unexpected error: %v", err)
	}

	toReveal, toFlag := st.DrainSolved()
	if !toReveal.Test(0) || !toReveal.Test(1) {
		t.Fatalf("expected cells 0 and 1 to be revealed, got %s", toReveal)
	}
	if !toFlag.Test(2) {
		t.Fatalf("expected cell 2 to be flagged, got %s", toFlag)
	}
	if st.HasSolved() {
		t.Fatal("expected the solved set to be empty after draining")
	}
}

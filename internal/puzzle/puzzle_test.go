package puzzle

import (
	"testing"

	"github.com/rawblock/tametsi-solver/internal/bitset"
)

func mask(bits ...int) bitset.Set {
	var s bitset.Set
	for _, b := range bits {
		s.Set(b)
	}
	return s
}

func TestNewValidPuzzle(t *testing.T) {
	neighbors := []bitset.Set{mask(1), mask(0, 2), mask(1)}
	p, err := New(neighbors, mask(2), bitset.Set{}, bitset.Set{}, []bitset.Set{mask(0, 1, 2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.N != 3 {
		t.Fatalf("expected N=3, got %d", p.N)
	}
	if p.Universe.PopCount() != 3 {
		t.Fatalf("expected universe popcount 3, got %d", p.Universe.PopCount())
	}
}

func TestNewRejectsMineUnknownOverlap(t *testing.T) {
	neighbors := []bitset.Set{{}, {}}
	_, err := New(neighbors, mask(0), mask(0), bitset.Set{}, nil)
	if err == nil {
		t.Fatal("expected error for overlapping mines/unknowns")
	}
}

func TestNewRejectsRevealedMine(t *testing.T) {
	neighbors := []bitset.Set{{}, {}}
	_, err := New(neighbors, mask(0), bitset.Set{}, mask(0), nil)
	if err == nil {
		t.Fatal("expected error for revealed cell that is a mine")
	}
}

func TestNewRejectsSelfAdjacency(t *testing.T) {
	neighbors := []bitset.Set{mask(0)}
	_, err := New(neighbors, bitset.Set{}, bitset.Set{}, bitset.Set{}, nil)
	if err == nil {
		t.Fatal("expected error for self-adjacent cell")
	}
}

func TestStateFinished(t *testing.T) {
	neighbors := []bitset.Set{{}, {}}
	p, err := New(neighbors, mask(1), bitset.Set{}, bitset.Set{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := NewState()
	if s.Finished(p) {
		t.Fatal("empty state should not be finished")
	}
	s.Revealed.Set(0)
	s.Flagged.Set(1)
	if !s.Finished(p) {
		t.Fatal("expected state to be finished once all cells are finalized")
	}
}

func TestStateClone(t *testing.T) {
	s := NewState()
	s.Revealed.Set(4)
	c := s.Clone()
	c.Revealed.Set(5)
	if s.Revealed.Test(5) {
		t.Fatal("clone should not alias the original state")
	}
}

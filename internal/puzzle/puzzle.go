// Package puzzle holds the immutable board description (Puzzle) and the
// mutable reveal/flag progress layered over it (State). Both are thin
// wrappers around bitset.Set — all the deductive work lives in the
// constraint and solve packages.
package puzzle

import (
	"fmt"

	"github.com/rawblock/tametsi-solver/internal/bitset"
)

// Puzzle is the fully specified, immutable description of a single board:
// the adjacency graph, the ground-truth mine placement, the cells whose
// content is never exposed as a number, the cells pre-revealed at load
// time, and the hint regions supplied by the puzzle author.
//
// The solver never changes a Puzzle once New has validated it; progress is
// tracked separately in a State.
type Puzzle struct {
	N         int
	Neighbors []bitset.Set
	Mines     bitset.Set
	Unknowns  bitset.Set
	Revealed  bitset.Set
	Hints     []bitset.Set
	Universe  bitset.Set

	// Layout carries per-cell rendering geometry when the puzzle was loaded
	// from a document that supplied it. It is never consulted by the solver;
	// a caller with no rendering need may leave it nil.
	Layout []Layout
}

// Layout is the optional rendering geometry for one cell: its anchor point
// and the flat (x,y)-pair polygon outlining it on screen.
type Layout struct {
	X, Y    float64
	Polygon []float64
}

// New builds a Puzzle from its raw fields and validates its invariants:
// mines/unknowns disjoint, a revealed cell is never a mine, and no cell is
// adjacent to itself.
func New(neighbors []bitset.Set, mines, unknowns, revealed bitset.Set, hints []bitset.Set) (*Puzzle, error) {
	n := len(neighbors)
	if n > bitset.Capacity {
		return nil, fmt.Errorf("puzzle: %d cells exceeds capacity %d", n, bitset.Capacity)
	}
	p := &Puzzle{
		N:         n,
		Neighbors: neighbors,
		Mines:     mines,
		Unknowns:  unknowns,
		Revealed:  revealed,
		Hints:     hints,
		Universe:  bitset.Full(n),
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Puzzle) validate() error {
	if bitset.Intersects(p.Mines, p.Unknowns) {
		return fmt.Errorf("puzzle: mines and unknowns overlap: %s", bitset.Intersect(p.Mines, p.Unknowns))
	}
	if bitset.Intersects(p.Revealed, p.Mines) {
		return fmt.Errorf("puzzle: a pre-revealed cell is a mine: %s", bitset.Intersect(p.Revealed, p.Mines))
	}
	for i, nb := range p.Neighbors {
		if nb.Test(i) {
			return fmt.Errorf("puzzle: cell %d is adjacent to itself", i)
		}
		if bitset.Diff(nb, p.Universe).Any() {
			return fmt.Errorf("puzzle: cell %d has a neighbor outside the universe", i)
		}
	}
	return nil
}

// State is the mutable revealed/flagged progress layered over a Puzzle.
// Bits only ever flip 0→1; callers never clear a bit.
type State struct {
	Revealed bitset.Set
	Flagged  bitset.Set
}

// NewState returns an empty State with nothing revealed or flagged.
func NewState() *State {
	return &State{}
}

// Clone returns a cheap copy of s, suitable for snapshotting between
// driver steps — it is exactly two bitmasks.
func (s *State) Clone() *State {
	c := *s
	return &c
}

// Finalized returns the union of revealed and flagged cells.
func (s *State) Finalized() bitset.Set {
	return bitset.Union(s.Revealed, s.Flagged)
}

// Finished reports whether every cell of the universe has been finalized.
func (s *State) Finished(p *Puzzle) bool {
	return s.Finalized() == p.Universe
}

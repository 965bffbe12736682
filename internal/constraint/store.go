package constraint

import (
	"fmt"

	"github.com/rawblock/tametsi-solver/internal/bitset"
)

// InconsistentError is returned by Add when tightening an existing
// constraint against an incoming one would produce Min > Max — the puzzle
// description (or a caller) has asserted contradictory bounds on the same
// region.
type InconsistentError struct {
	Region   bitset.Set
	Existing Constraint
	Incoming Constraint
}

func (e *InconsistentError) Error() string {
	return fmt.Sprintf("inconsistent constraint on region %s: existing %s, incoming %s",
		e.Region.String(), e.Existing, e.Incoming)
}

// Store is the indexed collection of live constraints: canonicalization by
// region (byRegion), a reverse index from cell to every constraint that
// mentions it (byCell), the solved set, and the size/slack-prioritized
// work queue. Queue entries that have been superseded while still queued
// are recorded in tombstones and discarded lazily on pop.
type Store struct {
	n          int
	byRegion   map[bitset.Set]Constraint
	byCell     []map[bitset.Set]Constraint
	solved     map[Constraint]struct{}
	queue      [][]queueBucket
	tombstones map[Constraint]struct{}
}

type queueBucket struct {
	items []Constraint
}

// NewStore returns an empty Store sized for a puzzle with n cells.
func NewStore(n int) *Store {
	byCell := make([]map[bitset.Set]Constraint, n)
	for i := range byCell {
		byCell[i] = make(map[bitset.Set]Constraint)
	}
	queue := make([][]queueBucket, n)
	for size := range queue {
		queue[size] = make([]queueBucket, size+2)
	}
	return &Store{
		n:          n,
		byRegion:   make(map[bitset.Set]Constraint),
		byCell:     byCell,
		solved:     make(map[Constraint]struct{}),
		queue:      queue,
		tombstones: make(map[Constraint]struct{}),
	}
}

// Add inserts c into the store, applying the canonicalization contract:
//  1. empty or useless constraints are discarded silently;
//  2. a constraint already live on the same region is tightened (or the
//     incoming one is discarded if it is no tighter);
//  3. a solved constraint is filed under solved, still indexed by cell;
//  4. otherwise c is filed under byRegion, enqueued, and indexed by cell.
//
// Add returns an *InconsistentError if tightening would require Min > Max.
func (st *Store) Add(c Constraint) error {
	if c.Bits.None() || c.IsUseless() {
		return nil
	}

	if known, ok := st.byRegion[c.Bits]; ok {
		if known.Min >= c.Min && known.Max <= c.Max {
			return nil // c is weaker than (or equal to) what we already know
		}
		newMin := maxInt(known.Min, c.Min)
		newMax := minInt(known.Max, c.Max)
		if newMin > newMax {
			return &InconsistentError{Region: c.Bits, Existing: known, Incoming: c}
		}
		st.remove(known)
		return st.Add(Constraint{Bits: c.Bits, Min: newMin, Max: newMax, Size: c.Bits.PopCount()})
	}

	if c.IsSolved() {
		st.solved[c] = struct{}{}
	} else {
		st.byRegion[c.Bits] = c
		st.enqueue(c)
	}

	c.Bits.ForEach(func(cell int) bool {
		st.byCell[cell][c.Bits] = c
		return true
	})
	return nil
}

// Remove takes c out of the store: out of solved or byRegion (tombstoning
// it there so a still-queued copy is discarded lazily), and out of every
// byCell entry it appears in.
func (st *Store) Remove(c Constraint) {
	st.remove(c)
}

func (st *Store) remove(c Constraint) {
	if c.IsSolved() {
		delete(st.solved, c)
	} else {
		delete(st.byRegion, c.Bits)
		st.tombstones[c] = struct{}{}
	}
	c.Bits.ForEach(func(cell int) bool {
		delete(st.byCell[cell], c.Bits)
		return true
	})
}

func (st *Store) enqueue(c Constraint) {
	slack := c.Slack()
	b := &st.queue[c.Size-1][slack]
	b.items = append(b.items, c)
}

// PopNext pops the highest-priority unsolved constraint — smallest size
// first, then smallest slack, FIFO within a bucket — skipping over
// tombstoned entries. It reports false once the queue is empty, at which
// point the tombstone set is garbage-collected.
func (st *Store) PopNext() (Constraint, bool) {
	for size := 1; size <= st.n; size++ {
		buckets := st.queue[size-1]
		for slack := 0; slack < len(buckets); slack++ {
			b := &buckets[slack]
			for len(b.items) > 0 {
				c := b.items[0]
				b.items = b.items[1:]
				if _, dead := st.tombstones[c]; dead {
					delete(st.tombstones, c)
					continue
				}
				if cur, ok := st.byRegion[c.Bits]; !ok || cur != c {
					// superseded by a tightened version without having been
					// tombstoned explicitly (defensive; should not happen
					// given Remove always tombstones on replacement)
					continue
				}
				return c, true
			}
		}
	}
	if len(st.tombstones) > 0 {
		st.tombstones = make(map[Constraint]struct{})
	}
	return Constraint{}, false
}

// ConstraintsAt returns a snapshot of every live constraint (solved or
// unsolved) whose region contains cell. Callers that will mutate the store
// while iterating (reveal/flag) must snapshot first, which is exactly what
// this returns.
func (st *Store) ConstraintsAt(cell int) []Constraint {
	m := st.byCell[cell]
	out := make([]Constraint, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// HasSolved reports whether any solved constraint is waiting to be drained.
func (st *Store) HasSolved() bool {
	return len(st.solved) > 0
}

// DrainSolved clears the solved set and returns the union of cells that
// resolve to "reveal" (Max == 0) and to "flag" (Min == Size).
func (st *Store) DrainSolved() (toReveal, toFlag bitset.Set) {
	for c := range st.solved {
		if c.AllSafe() {
			toReveal = bitset.Union(toReveal, c.Bits)
		} else {
			toFlag = bitset.Union(toFlag, c.Bits)
		}
	}
	st.solved = make(map[Constraint]struct{})
	return
}

// Live returns every constraint currently filed under byRegion, for
// invariant checks and diagnostics.
func (st *Store) Live() []Constraint {
	out := make([]Constraint, 0, len(st.byRegion))
	for _, c := range st.byRegion {
		out = append(out, c)
	}
	return out
}

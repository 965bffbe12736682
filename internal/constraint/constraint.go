// Package constraint implements the indexed collection of linear interval
// constraints that drives the solver: canonicalization by region, a
// per-cell reverse index, a solved set, and the size/slack-prioritized
// work queue.
package constraint

import (
	"fmt"

	"github.com/rawblock/tametsi-solver/internal/bitset"
)

// Constraint pairs a region with an interval [Min, Max] on the number of
// mines it contains. Size is cached popcount(Bits). The struct is a plain
// value type — comparable, small, and cheap to pass by value, with no
// reference cycles between a constraint and the cells it mentions.
type Constraint struct {
	Bits bitset.Set
	Min  int
	Max  int
	Size int
}

// New builds a Constraint over bits with the given bounds, computing Size
// from bits directly so callers never have to keep it in sync by hand.
func New(bits bitset.Set, min, max int) Constraint {
	return Constraint{Bits: bits, Min: min, Max: max, Size: bits.PopCount()}
}

// IsUseless reports whether the constraint carries no information: every
// subset between 0 and Size mines is consistent with it.
func (c Constraint) IsUseless() bool {
	return c.Min == 0 && c.Max == c.Size
}

// IsSolved reports whether every cell in the region is known: all safe
// (Max == 0) or all mines (Min == Size).
func (c Constraint) IsSolved() bool {
	return c.Max == 0 || c.Min == c.Size
}

// IsExact reports whether Min == Max and the constraint is not solved.
func (c Constraint) IsExact() bool {
	return c.Min == c.Max && !c.IsSolved()
}

// Slack returns Max - Min, used to prioritize the work queue.
func (c Constraint) Slack() int {
	return c.Max - c.Min
}

// AllSafe reports whether a solved constraint resolves to "reveal every
// cell". Callers should only call this once IsSolved is true.
func (c Constraint) AllSafe() bool {
	return c.Max == 0
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %d->%d/%d", c.Bits.String(), c.Min, c.Max, c.Size)
}

func satSub(a, b int) int {
	if a < b {
		return 0
	}
	return a - b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Cross derives up to three constraints from L and R, splitting their
// regions into the intersection L∩R, the left-only remainder L\R, and the
// right-only remainder R\L. The left-only and right-only
// constraints are omitted when their region is empty. Cross(L, R) and
// Cross(R, L) produce the same three outputs up to ordering — the formula
// is symmetric in L and R.
func Cross(l, r Constraint) []Constraint {
	out := make([]Constraint, 0, 3)

	intersection := bitset.Intersect(l.Bits, r.Bits)
	c := intersection.PopCount()

	iMin := maxInt(maxInt(satSub(l.Min+c, l.Size), satSub(r.Min+c, r.Size)), 0)
	iMax := minInt(c, minInt(l.Max, r.Max))
	out = append(out, Constraint{Bits: intersection, Min: iMin, Max: iMax, Size: c})

	leftOnly := bitset.Diff(l.Bits, r.Bits)
	if leftOnly.Any() {
		loMin := satSub(l.Min, iMax)
		loMax := minInt(satSub(l.Max, iMin), l.Size-c)
		out = append(out, Constraint{Bits: leftOnly, Min: loMin, Max: loMax, Size: leftOnly.PopCount()})
	}

	rightOnly := bitset.Diff(r.Bits, l.Bits)
	if rightOnly.Any() {
		roMin := satSub(r.Min, iMax)
		roMax := minInt(satSub(r.Max, iMin), r.Size-c)
		out = append(out, Constraint{Bits: rightOnly, Min: roMin, Max: roMax, Size: rightOnly.PopCount()})
	}

	return out
}

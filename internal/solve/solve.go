// Package solve implements the incremental, non-guessing solver: a single
// Step method that drains solved constraints into reveal/flag operations,
// crosses one unsolved constraint against every overlapping constraint, or
// replenishes the work queue when it runs dry.
package solve

import (
	"fmt"

	"github.com/rawblock/tametsi-solver/internal/bitset"
	"github.com/rawblock/tametsi-solver/internal/constraint"
	"github.com/rawblock/tametsi-solver/internal/puzzle"
)

// Default tuning knobs for the size gate.
const (
	DefaultMaxMinesCap = 3
	DefaultMaxCellsCap = 9
)

// ResultKind tags the closed variant returned by Step. CliqueConstraint is
// reserved but never produced — clique-based deduction is not implemented
// here.
type ResultKind int

const (
	KindProgress ResultKind = iota
	KindCross
	KindClique
	KindUnexpectedStop
	KindFinished
)

func (k ResultKind) String() string {
	switch k {
	case KindProgress:
		return "Progress"
	case KindCross:
		return "CrossConstraint"
	case KindClique:
		return "CliqueConstraint"
	case KindUnexpectedStop:
		return "UnexpectedStop"
	case KindFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Result is the outcome of a single Step call.
type Result struct {
	Kind       ResultKind
	Revealed   bitset.Set        // set when Kind == KindProgress
	Flagged    bitset.Set        // set when Kind == KindProgress
	Constraint constraint.Constraint // set when Kind == KindCross or KindClique
	Reason     string            // set when Kind == KindUnexpectedStop
}

// FatalError is returned internally when a reveal/flag precondition is
// violated (a tightened constraint that becomes inconsistent is reported as
// a *constraint.InconsistentError instead). Solver.Step never lets either
// escape — both are surfaced as an UnexpectedStop Result.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string {
	return e.Reason
}

// Option configures a Solver at construction time.
type Option func(*Solver)

// WithCaps overrides the size-gate tuning constants used by crossAll.
func WithCaps(maxMines, maxCells int) Option {
	return func(s *Solver) {
		s.MaxMinesCap = maxMines
		s.MaxCellsCap = maxCells
	}
}

// Solver owns a PuzzleState and a ConstraintStore over a single Puzzle. It
// holds no other mutable state, and is not safe for concurrent use — the
// driver that calls Step owns it exclusively.
type Solver struct {
	Puzzle *puzzle.Puzzle
	State  *puzzle.State
	Store  *constraint.Store

	MaxMinesCap int
	MaxCellsCap int
}

// New constructs a Solver for p: it seeds one exact constraint per hint
// (restricted to not-yet-revealed cells), falls back to a single
// whole-board constraint if the puzzle carries no hints at all, and then
// reveals every cell the puzzle marks as pre-revealed.
func New(p *puzzle.Puzzle, opts ...Option) (*Solver, error) {
	s := &Solver{
		Puzzle:      p,
		State:       puzzle.NewState(),
		Store:       constraint.NewStore(p.N),
		MaxMinesCap: DefaultMaxMinesCap,
		MaxCellsCap: DefaultMaxCellsCap,
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(p.Hints) == 0 {
		if err := s.addExactMineCount(p.Universe); err != nil {
			return nil, err
		}
	} else {
		for _, hint := range p.Hints {
			bits := bitset.Diff(hint, p.Revealed)
			if err := s.addExactMineCount(bits); err != nil {
				return nil, err
			}
		}
	}

	var revealErr error
	p.Revealed.ForEach(func(cell int) bool {
		if err := s.reveal(cell); err != nil {
			revealErr = err
			return false
		}
		return true
	})
	if revealErr != nil {
		return nil, revealErr
	}

	return s, nil
}

// addExactMineCount emits an exact constraint over region & !(revealed |
// flagged), with the mine count taken from ground truth — the puzzle is
// fully specified, so the solver's job is ordering deductions, not
// discovering mines.
func (s *Solver) addExactMineCount(region bitset.Set) error {
	bits := bitset.Diff(region, s.State.Finalized())
	mines := bitset.Intersect(bits, s.Puzzle.Mines).PopCount()
	return s.Store.Add(constraint.New(bits, mines, mines))
}

// Step advances the solver by exactly one effect and reports what
// happened.
func (s *Solver) Step() Result {
	if s.Store.HasSolved() {
		return s.drainSolved()
	}

	if next, ok := s.Store.PopNext(); ok {
		if err := s.crossAll(next); err != nil {
			return stopped(err)
		}
		return Result{Kind: KindCross, Constraint: next}
	}

	if s.State.Finished(s.Puzzle) {
		return Result{Kind: KindFinished}
	}

	if err := s.replenish(); err != nil {
		return stopped(err)
	}
	if next, ok := s.Store.PopNext(); ok {
		if err := s.crossAll(next); err != nil {
			return stopped(err)
		}
		return Result{Kind: KindCross, Constraint: next}
	}

	return Result{Kind: KindUnexpectedStop, Reason: "no more constraints"}
}

func stopped(err error) Result {
	return Result{Kind: KindUnexpectedStop, Reason: err.Error()}
}

func (s *Solver) drainSolved() Result {
	toReveal, toFlag := s.Store.DrainSolved()

	var err error
	toReveal.ForEach(func(cell int) bool {
		if e := s.reveal(cell); e != nil {
			err = e
			return false
		}
		return true
	})
	if err == nil {
		toFlag.ForEach(func(cell int) bool {
			if e := s.flag(cell); e != nil {
				err = e
				return false
			}
			return true
		})
	}
	if err != nil {
		return stopped(err)
	}

	return Result{Kind: KindProgress, Revealed: toReveal, Flagged: toFlag}
}

// reveal: every constraint touching cell loses that cell
// (safely, so its upper bound can only shrink), then cell is marked
// revealed, and — unless its content is permanently hidden — a fresh exact
// neighbor-count constraint is added.
func (s *Solver) reveal(cell int) error {
	if s.State.Revealed.Test(cell) {
		return &FatalError{Reason: fmt.Sprintf("invariant violation: cell %d already revealed", cell)}
	}
	if s.Puzzle.Mines.Test(cell) {
		return &FatalError{Reason: fmt.Sprintf("fatal: attempted to reveal mine at cell %d", cell)}
	}

	for _, q := range s.Store.ConstraintsAt(cell) {
		s.Store.Remove(q)
		bits := q.Bits
		bits.Clear(cell)
		size := q.Size - 1
		nc := constraint.Constraint{Bits: bits, Min: q.Min, Max: minIntLocal(q.Max, size), Size: size}
		if err := s.Store.Add(nc); err != nil {
			return err
		}
	}

	s.State.Revealed.Set(cell)

	if !s.Puzzle.Unknowns.Test(cell) {
		nc := s.neighborConstraint(cell)
		if err := s.Store.Add(nc); err != nil {
			return err
		}
	}
	return nil
}

// flag: every constraint touching cell accounts for one
// mine (Max drops by one, Min drops by one but never below zero).
func (s *Solver) flag(cell int) error {
	if s.State.Flagged.Test(cell) {
		return &FatalError{Reason: fmt.Sprintf("invariant violation: cell %d already flagged", cell)}
	}
	if !s.Puzzle.Mines.Test(cell) {
		return &FatalError{Reason: fmt.Sprintf("fatal: attempted to flag non-mine at cell %d", cell)}
	}

	for _, q := range s.Store.ConstraintsAt(cell) {
		s.Store.Remove(q)
		bits := q.Bits
		bits.Clear(cell)
		size := q.Size - 1
		nc := constraint.Constraint{Bits: bits, Min: maxIntLocal(q.Min-1, 0), Max: q.Max - 1, Size: size}
		if err := s.Store.Add(nc); err != nil {
			return err
		}
	}

	s.State.Flagged.Set(cell)
	return nil
}

// neighborConstraint computes the exact constraint for a revealed
// non-unknown cell: its unrevealed, unflagged neighbors, with the mine
// count taken from ground truth.
func (s *Solver) neighborConstraint(cell int) constraint.Constraint {
	region := bitset.Diff(s.Puzzle.Neighbors[cell], s.State.Finalized())
	mines := bitset.Intersect(region, s.Puzzle.Mines).PopCount()
	return constraint.New(region, mines, mines)
}

// crossAll enumerates every constraint overlapping c, applying the
// size gate and the seen-cell dedup so each candidate pair is crossed
// exactly once, then feeds every derived constraint back through Add.
func (s *Solver) crossAll(c constraint.Constraint) error {
	var seen bitset.Set

	var err error
	c.Bits.ForEach(func(cell int) bool {
		for _, k := range s.Store.ConstraintsAt(cell) {
			if k.Bits == c.Bits {
				continue
			}
			if bitset.Intersects(k.Bits, seen) {
				continue
			}
			if k.Max > s.MaxMinesCap && k.Size > s.MaxCellsCap {
				continue
			}
			for _, derived := range constraint.Cross(c, k) {
				if e := s.Store.Add(derived); e != nil {
					err = e
					return false
				}
			}
		}
		seen.Set(cell)
		return true
	})
	return err
}

// replenish re-seeds a fresh exact constraint for every hint region and
// every cell's neighborhood, restricted to unresolved cells. Some of these
// may have been dropped earlier purely because of the size gate;
// re-emitting them lets the solver make progress once the queue otherwise
// empties out.
func (s *Solver) replenish() error {
	for _, hint := range s.Puzzle.Hints {
		if err := s.addExactMineCount(hint); err != nil {
			return err
		}
	}
	for cell := range s.Puzzle.Neighbors {
		if err := s.addExactMineCount(s.Puzzle.Neighbors[cell]); err != nil {
			return err
		}
	}
	return nil
}

func minIntLocal(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxIntLocal(a, b int) int {
	if a > b {
		return a
	}
	return b
}

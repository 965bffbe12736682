// Package driver is the message pump that owns a single *solve.Solver and
// turns Load/Run/Step/Stop commands into NewPuzzle/Step events, sitting
// between a caller (HTTP handlers, a UI) and the core solver. It runs as a
// single goroutine driven by a Commands channel and a ctx.Done() channel,
// mirroring a ticker-driven background worker's lifecycle.
package driver

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/rawblock/tametsi-solver/internal/catalog"
	"github.com/rawblock/tametsi-solver/internal/puzzle"
	"github.com/rawblock/tametsi-solver/internal/solve"
	"github.com/rawblock/tametsi-solver/pkg/models"
)

// Command is the closed set of messages a caller may send to a Driver.
type Command interface {
	isCommand()
}

// LoadCommand requests that the driver parse listing and start a fresh
// Solver over it, replacing any solver currently loaded.
type LoadCommand struct {
	Listing catalog.Listing
}

// StepCommand advances the current solver by exactly one Step.
type StepCommand struct{}

// RunCommand puts the driver into continuous-stepping mode: every pump
// iteration steps the solver until a command arrives or the solver reaches
// a terminal result.
type RunCommand struct{}

// StopCommand leaves continuous-stepping mode without unloading the solver.
type StopCommand struct{}

func (LoadCommand) isCommand() {}
func (StepCommand) isCommand() {}
func (RunCommand) isCommand()  {}
func (StopCommand) isCommand() {}

// Event is the closed set of messages a Driver emits.
type Event interface {
	isEvent()
}

// ListingEvent carries the puzzle catalog, emitted once when the driver
// starts.
type ListingEvent struct {
	Listings []catalog.Listing
}

// NewPuzzleEvent announces that listing has been loaded and solving can
// begin.
type NewPuzzleEvent struct {
	State   *puzzle.State
	Listing catalog.Listing
}

// StepEvent carries the state snapshot and StepResult produced by one call
// to Solver.Step.
type StepEvent struct {
	State  *puzzle.State
	Result solve.Result
}

func (ListingEvent) isEvent()   {}
func (NewPuzzleEvent) isEvent() {}
func (StepEvent) isEvent()      {}

// Broadcaster is the subset of api.Hub the driver depends on, kept as an
// interface so the driver package never imports the HTTP layer.
type Broadcaster interface {
	Broadcast(data []byte)
}

// Recorder is the subset of db.PostgresStore the driver depends on, kept as
// an interface so the driver package never imports the database layer.
// A nil Recorder disables persistence entirely.
type Recorder interface {
	StartRun(ctx context.Context, puzzleName string) (uuid.UUID, error)
	RecordStep(ctx context.Context, id uuid.UUID) error
	FinishRun(ctx context.Context, id uuid.UUID, outcome, reason string) error
}

// Driver pumps Commands into solver steps and Events out, owning exactly
// one Solver at a time. It is not safe for concurrent use from more than
// one goroutine; Run is meant to be launched once in its own goroutine,
// with all interaction going through Commands/Events.
type Driver struct {
	Commands chan Command
	Events   chan Event

	catalogDir  string
	broadcaster Broadcaster
	recorder    Recorder

	ctx    context.Context
	solver *solve.Solver
	runID  uuid.UUID

	mu       sync.RWMutex
	listings []catalog.Listing
}

// Listings returns the most recent catalog scan, safe to call concurrently
// with Run from an HTTP handler goroutine.
func (d *Driver) Listings() []catalog.Listing {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.listings
}

// Find returns the listing with the given name, if the last scan found one.
func (d *Driver) Find(name string) (catalog.Listing, bool) {
	for _, l := range d.Listings() {
		if l.Name == name {
			return l, true
		}
	}
	return catalog.Listing{}, false
}

// New returns a Driver that discovers puzzles under catalogDir and, when
// broadcaster is non-nil, mirrors every emitted Event to it as JSON. recorder
// may be nil, in which case runs are not persisted.
func New(catalogDir string, broadcaster Broadcaster, recorder Recorder) *Driver {
	return &Driver{
		Commands:    make(chan Command),
		Events:      make(chan Event, 256),
		catalogDir:  catalogDir,
		broadcaster: broadcaster,
		recorder:    recorder,
	}
}

// Run scans the catalog, emits the initial ListingEvent, and then pumps
// commands until ctx is cancelled. It is intended to be run in its own
// goroutine.
func (d *Driver) Run(ctx context.Context) {
	d.ctx = ctx
	scanner := catalog.NewScanner(d.catalogDir)
	listings, err := scanner.Scan()
	if err != nil {
		log.Printf("[driver] catalog scan failed: %v", err)
	}
	d.mu.Lock()
	d.listings = listings
	d.mu.Unlock()
	d.emit(ListingEvent{Listings: listings})

	running := false
	for {
		select {
		case <-ctx.Done():
			log.Println("[driver] stopping")
			return
		default:
		}

		var cmd Command
		if running {
			select {
			case cmd = <-d.Commands:
			case <-ctx.Done():
				return
			default:
				cmd = RunCommand{}
			}
		} else {
			select {
			case cmd = <-d.Commands:
			case <-ctx.Done():
				return
			}
		}

		_, running = cmd.(RunCommand)
		terminal := d.handle(cmd)
		if terminal {
			running = false
		}
	}
}

// handle applies cmd and reports whether the solver just reached a
// terminal result, which ends Run-mode stepping even if the caller never
// sends an explicit Stop.
func (d *Driver) handle(cmd Command) (terminal bool) {
	switch c := cmd.(type) {
	case LoadCommand:
		p, err := c.Listing.Read()
		if err != nil {
			log.Printf("[driver] failed to load %q: %v", c.Listing.Name, err)
			return false
		}
		s, err := solve.New(p)
		if err != nil {
			log.Printf("[driver] failed to start solver for %q: %v", c.Listing.Name, err)
			return false
		}
		d.solver = s
		d.runID = uuid.Nil
		if d.recorder != nil {
			id, err := d.recorder.StartRun(d.ctx, c.Listing.Name)
			if err != nil {
				log.Printf("[driver] failed to record run start for %q: %v", c.Listing.Name, err)
			} else {
				d.runID = id
			}
		}
		d.emit(NewPuzzleEvent{State: s.State.Clone(), Listing: c.Listing})
		return false
	case RunCommand:
		return d.step()
	case StepCommand:
		return d.step()
	case StopCommand:
		return false
	default:
		return false
	}
}

func (d *Driver) step() (terminal bool) {
	if d.solver == nil {
		return false
	}
	result := d.solver.Step()
	d.emit(StepEvent{State: d.solver.State.Clone(), Result: result})

	if d.recorder != nil && d.runID != uuid.Nil {
		if err := d.recorder.RecordStep(d.ctx, d.runID); err != nil {
			log.Printf("[driver] failed to record step: %v", err)
		}
	}

	terminal = result.Kind == solve.KindFinished || result.Kind == solve.KindUnexpectedStop
	if terminal && d.recorder != nil && d.runID != uuid.Nil {
		if err := d.recorder.FinishRun(d.ctx, d.runID, result.Kind.String(), result.Reason); err != nil {
			log.Printf("[driver] failed to record run finish: %v", err)
		}
	}
	return terminal
}

func (d *Driver) emit(e Event) {
	select {
	case d.Events <- e:
	default:
		log.Printf("[driver] event channel full, dropping %T", e)
	}
	if d.broadcaster == nil {
		return
	}
	payload, err := wireEnvelope(e)
	if err != nil {
		log.Printf("[driver] failed to marshal event %T: %v", e, err)
		return
	}
	d.broadcaster.Broadcast(payload)
}

func wireEnvelope(e Event) ([]byte, error) {
	switch ev := e.(type) {
	case ListingEvent:
		puzzles := make([]models.PuzzleSummary, 0, len(ev.Listings))
		for _, l := range ev.Listings {
			puzzles = append(puzzles, models.PuzzleSummary{Name: l.Name})
		}
		return json.Marshal(models.Envelope{Type: "listing", Listing: &models.ListingPayload{Puzzles: puzzles}})
	case NewPuzzleEvent:
		return json.Marshal(models.Envelope{Type: "new_puzzle", NewPuzzle: &models.NewPuzzlePayload{
			Puzzle: ev.Listing.Name,
			State:  snapshot(ev.State),
		}})
	case StepEvent:
		return json.Marshal(models.Envelope{Type: "step", Step: &models.StepPayload{
			Kind:   ev.Result.Kind.String(),
			Reason: ev.Result.Reason,
			State:  snapshot(ev.State),
		}})
	default:
		return json.Marshal(models.Envelope{Type: "unknown"})
	}
}

func snapshot(s *puzzle.State) models.StateSnapshot {
	return models.StateSnapshot{Revealed: s.Revealed.Bits(), Flagged: s.Flagged.Bits()}
}

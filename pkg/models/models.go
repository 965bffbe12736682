// Package models holds the JSON wire types of the driver's WebSocket event
// envelopes and the persisted run records.
package models

import (
	"time"

	"github.com/google/uuid"
)

// PuzzleSummary names one catalog entry in the "listing" envelope broadcast
// over the WebSocket stream.
type PuzzleSummary struct {
	Name string `json:"name"`
}

// StateSnapshot is the wire form of a puzzle.State: the ascending bit
// indices of every revealed and flagged cell.
type StateSnapshot struct {
	Revealed []int `json:"revealed"`
	Flagged  []int `json:"flagged"`
}

// StepPayload carries one StepResult: its kind, an optional failure reason,
// and the state snapshot taken immediately after the step.
type StepPayload struct {
	Kind   string        `json:"kind"`
	Reason string        `json:"reason,omitempty"`
	State  StateSnapshot `json:"state"`
}

// NewPuzzlePayload announces that a puzzle finished loading.
type NewPuzzlePayload struct {
	Puzzle string        `json:"puzzle"`
	State  StateSnapshot `json:"state"`
}

// ListingPayload carries the puzzle catalog.
type ListingPayload struct {
	Puzzles []PuzzleSummary `json:"puzzles"`
}

// Envelope is the single JSON shape broadcast over the WebSocket stream;
// exactly one of its payload fields is set, selected by Type.
type Envelope struct {
	Type      string            `json:"type"`
	Listing   *ListingPayload   `json:"listing,omitempty"`
	NewPuzzle *NewPuzzlePayload `json:"newPuzzle,omitempty"`
	Step      *StepPayload      `json:"step,omitempty"`
}

// RunRecord summarizes one driver run, from Load to a terminal StepResult,
// persisted by the db package when Postgres is configured.
type RunRecord struct {
	ID         uuid.UUID  `json:"id"`
	PuzzleName string     `json:"puzzleName"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Steps      int        `json:"steps"`
	Outcome    string     `json:"outcome"`
	Reason     string     `json:"reason,omitempty"`
}

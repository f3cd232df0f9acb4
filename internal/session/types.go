// internal/session/types.go
//
// Core type definitions for the crossword session engine.
// Defines:
//   - Status: play/pause/complete lifecycle of a solve.
//   - State:  snapshot of a single room's solve.

package session

import (
	"time"

	"github.com/robalobadob/crossword-rooms/internal/puzzle"
)

// Status is the timer state of a solve.
// Possible values:
//   - "created":  puzzle selected, timer never started.
//   - "playing":  timer running; LastStart is set.
//   - "paused":   timer stopped; elapsed time banked.
//   - "complete": grid matches the solution; terminal.
type Status string

const (
	StatusCreated  Status = "created"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusComplete Status = "complete"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusPlaying, StatusPaused, StatusComplete:
		return true
	}
	return false
}

// State holds the snapshot of one room's solve. Engine operations never
// modify a State in place; they return a new one.
type State struct {
	Status              Status         // Current timer status.
	Puzzle              *puzzle.Puzzle // Puzzle being solved (shared, immutable).
	Cells               [][]string     // Current fill; "" is blank, blocks hold puzzle.Block.
	AcrossFilled        map[int]bool   // Across clue number -> every cell non-blank.
	DownFilled          map[int]bool   // Down clue number -> every cell non-blank.
	LastStart           *time.Time     // Set iff Status == StatusPlaying.
	TotalElapsedSeconds int64          // Solving time banked before LastStart.
}

// New constructs the initial state for solving p: every letter cell blank,
// every clue unfilled, timer never started.
func New(p *puzzle.Puzzle) State {
	cells := make([][]string, p.Rows)
	for r := 0; r < p.Rows; r++ {
		cells[r] = make([]string, p.Cols)
		for c := 0; c < p.Cols; c++ {
			if p.IsBlock(r, c) {
				cells[r][c] = puzzle.Block
			}
		}
	}

	s := State{
		Status: StatusCreated,
		Puzzle: p,
		Cells:  cells,
	}
	s.AcrossFilled, s.DownFilled = filledFlags(p, cells)
	return s
}

// clone deep-copies the mutable parts of s. The puzzle is shared.
func (s State) clone() State {
	cp := s
	cp.Cells = make([][]string, len(s.Cells))
	for r, row := range s.Cells {
		cp.Cells[r] = append([]string(nil), row...)
	}
	cp.AcrossFilled = copyFlags(s.AcrossFilled)
	cp.DownFilled = copyFlags(s.DownFilled)
	if s.LastStart != nil {
		t := *s.LastStart
		cp.LastStart = &t
	}
	return cp
}

// Elapsed returns the total solving time as of now, including the running
// interval when playing.
func (s State) Elapsed(now time.Time) time.Duration {
	total := time.Duration(s.TotalElapsedSeconds) * time.Second
	if s.LastStart != nil && now.After(*s.LastStart) {
		total += now.Sub(*s.LastStart)
	}
	return total
}

func copyFlags(m map[int]bool) map[int]bool {
	cp := make(map[int]bool, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

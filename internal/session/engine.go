// internal/session/engine.go
//
// Core engine for a single crossword solve.
// Responsibilities:
//   - Apply answers to clues (partial fill, rebus, optional clearing).
//   - Recompute every clue's filled flag after each edit.
//   - Detect completion and stop the timer.
//   - Toggle the play/pause timer state machine.
//
// Notes:
//   - Every operation takes a State and returns a new one; the input is
//     never modified, so a rejected operation leaves the caller's snapshot
//     untouched.
//   - "now" is always passed in; the engine never reads the clock.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/crossword-rooms/internal/answer"
	"github.com/robalobadob/crossword-rooms/internal/puzzle"
)

var (
	// ErrUnknownClue means the clue reference parsed but the puzzle has no
	// such clue in that direction.
	ErrUnknownClue = errors.New("no such clue")

	// ErrLengthMismatch means the answer does not cover exactly the clue's
	// cells.
	ErrLengthMismatch = errors.New("answer length does not match clue")

	// ErrIncorrectAnswer is returned by CheckAnswer.
	ErrIncorrectAnswer = errors.New("answer is incorrect")

	// ErrComplete means the solve is finished and the grid is frozen.
	ErrComplete = errors.New("puzzle already complete")

	// ErrCorruptState means a snapshot violates the engine's invariants,
	// usually because stored data was damaged.
	ErrCorruptState = errors.New("corrupt session state")
)

// ApplyAnswer writes answerText into the cells of clueRef.
//
// With allowClearing, every value is written, so "." blanks a cell. Without
// it, empty values leave the existing cell content alone, which lets solvers
// submit a partial answer without erasing letters others have filled.
//
// After writing, all filled flags are recomputed (one answer can fill
// several crossing clues) and, if the grid now matches the solution, the
// solve becomes complete and the running interval is banked.
func ApplyAnswer(s State, clueRef, answerText string, allowClearing bool, now time.Time) (State, error) {
	if err := Validate(s); err != nil {
		return s, err
	}
	if s.Status == StatusComplete {
		return s, ErrComplete
	}

	coords, values, err := resolve(s.Puzzle, clueRef, answerText)
	if err != nil {
		return s, err
	}

	next := s.clone()
	for i, at := range coords {
		if allowClearing || values[i] != "" {
			next.Cells[at.Row][at.Col] = values[i]
		}
	}
	next.AcrossFilled, next.DownFilled = filledFlags(next.Puzzle, next.Cells)

	if solved(next.Puzzle, next.Cells) {
		next.Status = StatusComplete
		next.stopTimer(now)
	}
	return next, nil
}

// CheckAnswer reports ErrIncorrectAnswer when applying answerText would put
// a wrong value in any cell, or would clear a correctly filled cell. It is
// used by rooms that only accept correct answers and never changes s.
func CheckAnswer(s State, clueRef, answerText string, allowClearing bool) error {
	if err := Validate(s); err != nil {
		return err
	}

	coords, values, err := resolve(s.Puzzle, clueRef, answerText)
	if err != nil {
		return err
	}

	for i, at := range coords {
		solution := s.Puzzle.Cells[at.Row][at.Col]
		current := s.Cells[at.Row][at.Col]
		switch {
		case values[i] != "" && values[i] != solution:
			return fmt.Errorf("%w: %s", ErrIncorrectAnswer, clueRef)
		case values[i] == "" && allowClearing && current == solution:
			return fmt.Errorf("%w: would clear a correct cell in %s", ErrIncorrectAnswer, clueRef)
		}
	}
	return nil
}

// ClearIncorrectCells blanks every filled cell that differs from the
// solution and recomputes the filled flags. Rooms call it when they switch
// to only accepting correct answers mid-solve. It never completes a solve.
func ClearIncorrectCells(s State) (State, error) {
	if err := Validate(s); err != nil {
		return s, err
	}

	next := s.clone()
	for r, row := range next.Cells {
		for c, v := range row {
			if v != "" && v != next.Puzzle.Cells[r][c] {
				next.Cells[r][c] = ""
			}
		}
	}
	next.AcrossFilled, next.DownFilled = filledFlags(next.Puzzle, next.Cells)
	return next, nil
}

// TogglePlayPause advances the timer state machine:
//
//	created  -> playing  (LastStart = now)
//	paused   -> playing  (LastStart = now)
//	playing  -> paused   (bank whole seconds since LastStart)
//	complete -> complete (no-op)
func TogglePlayPause(s State, now time.Time) (State, error) {
	if err := Validate(s); err != nil {
		return s, err
	}

	next := s.clone()
	switch s.Status {
	case StatusCreated, StatusPaused:
		next.Status = StatusPlaying
		start := now
		next.LastStart = &start
	case StatusPlaying:
		next.Status = StatusPaused
		next.stopTimer(now)
	case StatusComplete:
	}
	return next, nil
}

// CorrectAnswer returns the solution for clueRef formatted as answer text,
// with rebus cells in parentheses.
func CorrectAnswer(p *puzzle.Puzzle, clueRef string) (string, error) {
	num, dir, err := answer.ParseClue(clueRef)
	if err != nil {
		return "", err
	}
	coords, ok := p.AnswerCells(num, dir)
	if !ok {
		return "", fmt.Errorf("%w: %d%s", ErrUnknownClue, num, dir)
	}

	values := make([]string, len(coords))
	for i, at := range coords {
		values[i] = p.Cells[at.Row][at.Col]
	}
	return answer.Format(values), nil
}

// Validate checks the invariants a stored snapshot must satisfy before the
// engine will touch it.
func Validate(s State) error {
	p := s.Puzzle
	switch {
	case p == nil:
		return fmt.Errorf("%w: missing puzzle", ErrCorruptState)
	case !s.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrCorruptState, s.Status)
	case len(s.Cells) != p.Rows || len(p.Cells) != p.Rows:
		return fmt.Errorf("%w: grid has %d rows, puzzle has %d", ErrCorruptState, len(s.Cells), p.Rows)
	case (s.LastStart != nil) != (s.Status == StatusPlaying):
		return fmt.Errorf("%w: status %s with last start %v", ErrCorruptState, s.Status, s.LastStart)
	case s.TotalElapsedSeconds < 0:
		return fmt.Errorf("%w: negative elapsed time", ErrCorruptState)
	}

	for r := range s.Cells {
		if len(s.Cells[r]) != p.Cols || len(p.Cells[r]) != p.Cols {
			return fmt.Errorf("%w: row %d has %d cols, puzzle has %d", ErrCorruptState, r, len(s.Cells[r]), p.Cols)
		}
		for c := range s.Cells[r] {
			if p.IsBlock(r, c) && s.Cells[r][c] != puzzle.Block {
				return fmt.Errorf("%w: block at (%d,%d) was written", ErrCorruptState, r, c)
			}
		}
	}

	if s.Status == StatusComplete && !solved(p, s.Cells) {
		return fmt.Errorf("%w: complete but grid does not match solution", ErrCorruptState)
	}
	return nil
}

// resolve parses the clue and answer and pairs each value with its cell.
func resolve(p *puzzle.Puzzle, clueRef, answerText string) ([]puzzle.Coord, []string, error) {
	num, dir, err := answer.ParseClue(clueRef)
	if err != nil {
		return nil, nil, err
	}

	coords, ok := p.AnswerCells(num, dir)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d%s", ErrUnknownClue, num, dir)
	}

	values := answer.ParseAnswer(answerText)
	if len(values) != len(coords) {
		return nil, nil, fmt.Errorf("%w: got %d cells, %d%s has %d", ErrLengthMismatch, len(values), num, dir, len(coords))
	}
	return coords, values, nil
}

// filledFlags recomputes every clue's filled flag by scanning its cells.
func filledFlags(p *puzzle.Puzzle, cells [][]string) (across, down map[int]bool) {
	scan := func(dir answer.Direction) map[int]bool {
		flags := make(map[int]bool, len(p.Clues(dir)))
		for num := range p.Clues(dir) {
			coords, ok := p.AnswerCells(num, dir)
			filled := ok
			for _, at := range coords {
				if cells[at.Row][at.Col] == "" {
					filled = false
					break
				}
			}
			flags[num] = filled
		}
		return flags
	}
	return scan(answer.Across), scan(answer.Down)
}

// solved reports whether cells matches the solution exactly.
func solved(p *puzzle.Puzzle, cells [][]string) bool {
	for r, row := range p.Cells {
		for c, v := range row {
			if cells[r][c] != v {
				return false
			}
		}
	}
	return true
}

// stopTimer banks the whole seconds since LastStart and clears it.
func (s *State) stopTimer(now time.Time) {
	if s.LastStart == nil {
		return
	}
	if d := now.Sub(*s.LastStart); d > 0 {
		s.TotalElapsedSeconds += int64(d / time.Second)
	}
	s.LastStart = nil
}

// internal/snapshot/snapshot.go
//
// Interchange shape for puzzles and session snapshots.
// Responsibilities:
//   - Convert session.State / puzzle.Puzzle to and from their wire structs.
//   - Encode block cells as null so they can never be confused with "".
//   - Key clue maps by decimal strings and parse them back to ints.
//
// Notes:
//   - Stores persist the JSON produced here; the HTTP layer embeds the same
//     structs in its responses.
//   - Puzzle files may also be YAML with the same field names.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/crossword-rooms/internal/puzzle"
	"github.com/robalobadob/crossword-rooms/internal/session"
)

// PublishedLayout is the date format of Puzzle.Published.
const PublishedLayout = "2006-01-02"

// ErrMalformed is returned when a payload cannot be turned back into a
// puzzle or state.
var ErrMalformed = errors.New("malformed snapshot")

// Puzzle is the wire form of puzzle.Puzzle.
type Puzzle struct {
	Rows            int               `json:"rows" yaml:"rows"`
	Cols            int               `json:"cols" yaml:"cols"`
	Title           string            `json:"title" yaml:"title"`
	Publisher       string            `json:"publisher" yaml:"publisher"`
	Published       string            `json:"published" yaml:"published"`
	Author          string            `json:"author" yaml:"author"`
	Cells           [][]*string       `json:"cells" yaml:"cells"`
	CellClueNumbers [][]int           `json:"cell_clue_numbers" yaml:"cell_clue_numbers"`
	CellCircles     [][]bool          `json:"cell_circles,omitempty" yaml:"cell_circles,omitempty"`
	AcrossClues     map[string]string `json:"across_clues" yaml:"across_clues"`
	DownClues       map[string]string `json:"down_clues" yaml:"down_clues"`
}

// State is the wire form of session.State.
type State struct {
	State        string          `json:"state"`
	Puzzle       Puzzle          `json:"puzzle"`
	Cells        [][]*string     `json:"cells"`
	AcrossFilled map[string]bool `json:"across_clues_filled"`
	DownFilled   map[string]bool `json:"down_clues_filled"`
	LastStart    *time.Time      `json:"last_start_time"`
	TotalSecs    int64           `json:"total_time_secs"`
}

// FromPuzzle converts p to its wire form.
func FromPuzzle(p *puzzle.Puzzle) Puzzle {
	w := Puzzle{
		Rows:            p.Rows,
		Cols:            p.Cols,
		Title:           p.Title,
		Publisher:       p.Publisher,
		Author:          p.Author,
		Cells:           gridToWire(p, p.Cells),
		CellClueNumbers: p.CellClueNumbers,
		CellCircles:     p.CellCircles,
		AcrossClues:     keysToWire(p.CluesAcross),
		DownClues:       keysToWire(p.CluesDown),
	}
	if !p.Published.IsZero() {
		w.Published = p.Published.Format(PublishedLayout)
	}
	return w
}

// ToPuzzle converts w back into a validated puzzle.
func (w Puzzle) ToPuzzle() (*puzzle.Puzzle, error) {
	p := &puzzle.Puzzle{
		Rows:            w.Rows,
		Cols:            w.Cols,
		Title:           w.Title,
		Publisher:       w.Publisher,
		Author:          w.Author,
		CellClueNumbers: w.CellClueNumbers,
		CellCircles:     w.CellCircles,
	}

	if w.Published != "" {
		t, err := time.Parse(PublishedLayout, w.Published)
		if err != nil {
			return nil, fmt.Errorf("%w: published date %q", ErrMalformed, w.Published)
		}
		p.Published = t
	}

	p.Cells = make([][]string, len(w.Cells))
	for r, row := range w.Cells {
		p.Cells[r] = make([]string, len(row))
		for c, v := range row {
			if v == nil {
				p.Cells[r][c] = puzzle.Block
			} else {
				p.Cells[r][c] = *v
			}
		}
	}

	var err error
	if p.CluesAcross, err = keysFromWire(w.AcrossClues); err != nil {
		return nil, fmt.Errorf("across_clues: %w", err)
	}
	if p.CluesDown, err = keysFromWire(w.DownClues); err != nil {
		return nil, fmt.Errorf("down_clues: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// FromState converts s to its wire form.
func FromState(s session.State) State {
	return State{
		State:        string(s.Status),
		Puzzle:       FromPuzzle(s.Puzzle),
		Cells:        gridToWire(s.Puzzle, s.Cells),
		AcrossFilled: keysToWire(s.AcrossFilled),
		DownFilled:   keysToWire(s.DownFilled),
		LastStart:    s.LastStart,
		TotalSecs:    s.TotalElapsedSeconds,
	}
}

// ToState converts w back into a session state and checks it with
// session.Validate.
func (w State) ToState() (session.State, error) {
	p, err := w.Puzzle.ToPuzzle()
	if err != nil {
		return session.State{}, err
	}

	s := session.State{
		Status:              session.Status(w.State),
		Puzzle:              p,
		LastStart:           w.LastStart,
		TotalElapsedSeconds: w.TotalSecs,
	}

	s.Cells = make([][]string, len(w.Cells))
	for r, row := range w.Cells {
		s.Cells[r] = make([]string, len(row))
		for c, v := range row {
			switch {
			case v != nil:
				s.Cells[r][c] = *v
			case r < p.Rows && c < p.Cols && p.IsBlock(r, c):
				s.Cells[r][c] = puzzle.Block
			default:
				return session.State{}, fmt.Errorf("%w: null cell at (%d,%d) is not a block", ErrMalformed, r, c)
			}
		}
	}

	if s.AcrossFilled, err = keysFromWire(w.AcrossFilled); err != nil {
		return session.State{}, fmt.Errorf("across_clues_filled: %w", err)
	}
	if s.DownFilled, err = keysFromWire(w.DownFilled); err != nil {
		return session.State{}, fmt.Errorf("down_clues_filled: %w", err)
	}

	if err := session.Validate(s); err != nil {
		return session.State{}, err
	}
	return s, nil
}

// EncodeState serializes s as JSON.
func EncodeState(s session.State) ([]byte, error) {
	return json.Marshal(FromState(s))
}

// DecodeState parses JSON produced by EncodeState.
func DecodeState(data []byte) (session.State, error) {
	var w State
	if err := json.Unmarshal(data, &w); err != nil {
		return session.State{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return w.ToState()
}

// DecodePuzzleJSON parses a puzzle object in JSON.
func DecodePuzzleJSON(data []byte) (*puzzle.Puzzle, error) {
	var w Puzzle
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return w.ToPuzzle()
}

// DecodePuzzleYAML parses a puzzle object in YAML. Blocks are written as
// null (~).
func DecodePuzzleYAML(data []byte) (*puzzle.Puzzle, error) {
	var w Puzzle
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return w.ToPuzzle()
}

// gridToWire copies cells, replacing every block position of p with nil.
func gridToWire(p *puzzle.Puzzle, cells [][]string) [][]*string {
	out := make([][]*string, len(cells))
	for r, row := range cells {
		out[r] = make([]*string, len(row))
		for c := range row {
			if p.IsBlock(r, c) {
				continue
			}
			v := row[c]
			out[r][c] = &v
		}
	}
	return out
}

func keysToWire[V any](m map[int]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[strconv.Itoa(k)] = v
	}
	return out
}

func keysFromWire[V any](m map[string]V) (map[int]V, error) {
	out := make(map[int]V, len(m))
	for k, v := range m {
		n, err := strconv.Atoi(k)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: clue number %q", ErrMalformed, k)
		}
		out[n] = v
	}
	return out, nil
}

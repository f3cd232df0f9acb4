// internal/puzzle/puzzle.go
//
// Immutable crossword puzzle definition.
// A Puzzle carries its own solution grid, clue numbering grid, circles and
// clue text; nothing in this package derives numbering from the layout.
// AnswerCells is the coordinate mapping the session engine relies on.
package puzzle

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/robalobadob/crossword-rooms/internal/answer"
)

// Block marks a cell that cannot hold an answer. It appears in both the
// solution grid and every session grid at the same coordinates.
const Block = "#"

// ErrInvalidPuzzle is returned by Validate for puzzles whose grids disagree
// with their declared dimensions.
var ErrInvalidPuzzle = errors.New("invalid puzzle")

// Coord addresses a single cell.
type Coord struct {
	Row int
	Col int
}

// Puzzle is a crossword puzzle. Cells, CellClueNumbers and CellCircles are
// indexed [row][col].
type Puzzle struct {
	Rows            int
	Cols            int
	Title           string
	Publisher       string
	Published       time.Time
	Author          string
	Cells           [][]string
	CellClueNumbers [][]int
	CellCircles     [][]bool
	CluesAcross     map[int]string
	CluesDown       map[int]string
}

// IsBlock reports whether the cell at (row, col) is a block.
func (p *Puzzle) IsBlock(row, col int) bool {
	return p.Cells[row][col] == Block
}

// Clues returns the clue text map for a direction.
func (p *Puzzle) Clues(dir answer.Direction) map[int]string {
	if dir == answer.Down {
		return p.CluesDown
	}
	return p.CluesAcross
}

// ClueNumbers returns the clue numbers for a direction in ascending order.
func (p *Puzzle) ClueNumbers(dir answer.Direction) []int {
	clues := p.Clues(dir)
	nums := make([]int, 0, len(clues))
	for n := range clues {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// AnswerCells returns the ordered coordinates of the answer for clue num in
// direction dir. The answer starts at the cell numbered num and runs until a
// block or the edge of the grid. ok is false when the puzzle has no such
// clue.
func (p *Puzzle) AnswerCells(num int, dir answer.Direction) (cells []Coord, ok bool) {
	if _, exists := p.Clues(dir)[num]; !exists {
		return nil, false
	}

	start, found := p.findNumber(num)
	if !found {
		return nil, false
	}

	dr, dc := 0, 1
	if dir == answer.Down {
		dr, dc = 1, 0
	}
	for r, c := start.Row, start.Col; r < p.Rows && c < p.Cols && !p.IsBlock(r, c); r, c = r+dr, c+dc {
		cells = append(cells, Coord{Row: r, Col: c})
	}
	return cells, len(cells) > 0
}

func (p *Puzzle) findNumber(num int) (Coord, bool) {
	for r, row := range p.CellClueNumbers {
		for c, n := range row {
			if n == num && num != 0 {
				return Coord{Row: r, Col: c}, true
			}
		}
	}
	return Coord{}, false
}

// WithoutSolution returns a copy of the puzzle with every non-block cell
// blanked so the puzzle can be shown to solvers.
func (p *Puzzle) WithoutSolution() *Puzzle {
	cp := *p
	cp.Cells = make([][]string, len(p.Cells))
	for r, row := range p.Cells {
		cp.Cells[r] = make([]string, len(row))
		for c, v := range row {
			if v == Block {
				cp.Cells[r][c] = Block
			}
		}
	}
	return &cp
}

// Validate checks that every grid matches Rows x Cols and that each clue
// resolves to at least one cell.
func (p *Puzzle) Validate() error {
	if p.Rows <= 0 || p.Cols <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidPuzzle, p.Rows, p.Cols)
	}
	if err := checkShape("cells", len(p.Cells), func(r int) int { return len(p.Cells[r]) }, p.Rows, p.Cols); err != nil {
		return err
	}
	if err := checkShape("cell_clue_numbers", len(p.CellClueNumbers), func(r int) int { return len(p.CellClueNumbers[r]) }, p.Rows, p.Cols); err != nil {
		return err
	}
	if p.CellCircles != nil {
		if err := checkShape("cell_circles", len(p.CellCircles), func(r int) int { return len(p.CellCircles[r]) }, p.Rows, p.Cols); err != nil {
			return err
		}
	}

	for _, dir := range []answer.Direction{answer.Across, answer.Down} {
		for _, n := range p.ClueNumbers(dir) {
			if _, ok := p.AnswerCells(n, dir); !ok {
				return fmt.Errorf("%w: clue %d%s has no cells", ErrInvalidPuzzle, n, dir)
			}
		}
	}
	return nil
}

func checkShape(name string, rows int, cols func(int) int, wantRows, wantCols int) error {
	if rows != wantRows {
		return fmt.Errorf("%w: %s has %d rows, want %d", ErrInvalidPuzzle, name, rows, wantRows)
	}
	for r := 0; r < rows; r++ {
		if cols(r) != wantCols {
			return fmt.Errorf("%w: %s row %d has %d cols, want %d", ErrInvalidPuzzle, name, r, cols(r), wantCols)
		}
	}
	return nil
}

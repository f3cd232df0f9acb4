package puzzle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword-rooms/internal/answer"
	"github.com/robalobadob/crossword-rooms/internal/puzzle"
	"github.com/robalobadob/crossword-rooms/internal/puzzle/puzzletest"
)

func TestPuzzle_AnswerCells(t *testing.T) {
	tests := []struct {
		name      string
		num       int
		direction answer.Direction
		expected  []puzzle.Coord
	}{
		{
			name:      "first across",
			num:       1,
			direction: answer.Across,
			expected:  []puzzle.Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}},
		},
		{
			name:      "across after block",
			num:       7,
			direction: answer.Across,
			expected:  []puzzle.Coord{{Row: 3, Col: 1}, {Row: 3, Col: 2}, {Row: 3, Col: 3}},
		},
		{
			name:      "full-width across",
			num:       4,
			direction: answer.Across,
			expected:  []puzzle.Coord{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 1, Col: 3}},
		},
		{
			name:      "down stopping at block",
			num:       1,
			direction: answer.Down,
			expected:  []puzzle.Coord{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}},
		},
		{
			name:      "down starting below block",
			num:       5,
			direction: answer.Down,
			expected:  []puzzle.Coord{{Row: 1, Col: 3}, {Row: 2, Col: 3}, {Row: 3, Col: 3}},
		},
	}

	p := puzzletest.Mini()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cells, ok := p.AnswerCells(test.num, test.direction)
			require.True(t, ok)
			assert.Equal(t, test.expected, cells)
		})
	}
}

func TestPuzzle_AnswerCells_Unknown(t *testing.T) {
	p := puzzletest.Mini()

	_, ok := p.AnswerCells(2, answer.Across)
	assert.False(t, ok, "2 is only a down clue")

	_, ok = p.AnswerCells(4, answer.Down)
	assert.False(t, ok, "4 is only an across clue")

	_, ok = p.AnswerCells(99, answer.Across)
	assert.False(t, ok)

	_, ok = p.AnswerCells(0, answer.Across)
	assert.False(t, ok)
}

func TestPuzzle_ClueNumbers(t *testing.T) {
	p := puzzletest.Mini()
	assert.Equal(t, []int{1, 4, 6, 7}, p.ClueNumbers(answer.Across))
	assert.Equal(t, []int{1, 2, 3, 5}, p.ClueNumbers(answer.Down))
}

func TestPuzzle_WithoutSolution(t *testing.T) {
	p := puzzletest.Mini()
	stripped := p.WithoutSolution()

	for r := 0; r < p.Rows; r++ {
		for c := 0; c < p.Cols; c++ {
			if p.IsBlock(r, c) {
				assert.Equal(t, puzzle.Block, stripped.Cells[r][c])
			} else {
				assert.Equal(t, "", stripped.Cells[r][c])
			}
		}
	}

	// The original keeps its solution.
	assert.Equal(t, "RED", p.Cells[3][3])
	assert.Equal(t, p.CluesAcross, stripped.CluesAcross)
	assert.Equal(t, p.Title, stripped.Title)
}

func TestPuzzle_Validate(t *testing.T) {
	require.NoError(t, puzzletest.Mini().Validate())

	tests := []struct {
		name   string
		mutate func(p *puzzle.Puzzle)
	}{
		{name: "zero rows", mutate: func(p *puzzle.Puzzle) { p.Rows = 0 }},
		{name: "missing row", mutate: func(p *puzzle.Puzzle) { p.Cells = p.Cells[:3] }},
		{name: "short row", mutate: func(p *puzzle.Puzzle) { p.Cells[1] = p.Cells[1][:2] }},
		{name: "numbers shape", mutate: func(p *puzzle.Puzzle) { p.CellClueNumbers[0] = []int{1} }},
		{name: "circles shape", mutate: func(p *puzzle.Puzzle) { p.CellCircles = [][]bool{{true}} }},
		{name: "clue without cell", mutate: func(p *puzzle.Puzzle) { p.CluesAcross[42] = "Nowhere" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := puzzletest.Mini()
			test.mutate(p)
			assert.ErrorIs(t, p.Validate(), puzzle.ErrInvalidPuzzle)
		})
	}
}

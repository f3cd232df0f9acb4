// Package puzzletest provides small puzzles for tests.
package puzzletest

import (
	"time"

	"github.com/robalobadob/crossword-rooms/internal/puzzle"
)

// Mini returns a 4x4 puzzle with two blocks and a rebus in the bottom-right
// cell:
//
//	C A T #
//	O R E S
//	B E A R
//	# A M (RED)
//
// Across: 1 CAT, 4 ORES, 6 BEAR, 7 AM(RED).
// Down:   1 COB, 2 AREA, 3 TEAM, 5 SR(RED).
func Mini() *puzzle.Puzzle {
	B := puzzle.Block
	return &puzzle.Puzzle{
		Rows:      4,
		Cols:      4,
		Title:     "Mini",
		Publisher: "Crossword Rooms",
		Published: time.Date(2020, time.March, 14, 0, 0, 0, 0, time.UTC),
		Author:    "Test Author",
		Cells: [][]string{
			{"C", "A", "T", B},
			{"O", "R", "E", "S"},
			{"B", "E", "A", "R"},
			{B, "A", "M", "RED"},
		},
		CellClueNumbers: [][]int{
			{1, 2, 3, 0},
			{4, 0, 0, 5},
			{6, 0, 0, 0},
			{0, 7, 0, 0},
		},
		CellCircles: [][]bool{
			{false, false, false, false},
			{false, true, false, false},
			{false, false, false, false},
			{false, false, false, true},
		},
		CluesAcross: map[int]string{
			1: "Feline",
			4: "Mined rocks",
			6: "Grizzly",
			7: "Morning hours, then a color",
		},
		CluesDown: map[int]string{
			1: "Corn ___",
			2: "Region",
			3: "Squad",
			5: "Abbr. for senior, then a color",
		},
	}
}

// Answers maps every clue reference of Mini to its correct answer text.
func Answers() map[string]string {
	return map[string]string{
		"1a": "CAT",
		"4a": "ORES",
		"6a": "BEAR",
		"7a": "AM(RED)",
		"1d": "COB",
		"2d": "AREA",
		"3d": "TEAM",
		"5d": "SR(RED)",
	}
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword-rooms/internal/puzzle"
	"github.com/robalobadob/crossword-rooms/internal/puzzle/puzzletest"
)

func TestLoad_Embedded(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	ids := make([]string, 0, c.Len())
	for _, e := range c.List() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"bat-square", "heart-square", "mini-rebus"}, ids)

	p, err := c.Get("mini-rebus")
	require.NoError(t, err)
	assert.Equal(t, puzzletest.Mini().Cells, p.Cells)
	assert.Equal(t, puzzletest.Mini().CellClueNumbers, p.CellClueNumbers)

	p, err = c.Get("heart-square")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Rows)
	assert.Len(t, p.CluesAcross, 5)
	assert.Len(t, p.CluesDown, 5)
}

func TestLoad_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bat-square.yml"), []byte(`
rows: 1
cols: 2
title: Override
cells: [[O, K]]
cell_clue_numbers: [[1, 0]]
across_clues: {1: Fine}
down_clues: {}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	p, err := c.Get("bat-square")
	require.NoError(t, err)
	assert.Equal(t, "Override", p.Title)
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"rows": 2}`), 0o644))

	_, err := Load(dir)
	assert.ErrorIs(t, err, puzzle.ErrInvalidPuzzle)

	_, err = Load(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestGet_Unknown(t *testing.T) {
	c := New(map[string]*puzzle.Puzzle{"mini": puzzletest.Mini()})
	_, err := c.Get("maxi")
	assert.ErrorIs(t, err, ErrUnknownPuzzle)
}

func TestList(t *testing.T) {
	c := New(map[string]*puzzle.Puzzle{"mini": puzzletest.Mini()})
	assert.Equal(t, []Entry{{
		ID:        "mini",
		Title:     "Mini",
		Author:    "Test Author",
		Publisher: "Crossword Rooms",
		Published: "2020-03-14",
		Rows:      4,
		Cols:      4,
	}}, c.List())
}

func miniCatalog(ids ...string) *Catalog {
	puzzles := make(map[string]*puzzle.Puzzle, len(ids))
	for _, id := range ids {
		puzzles[id] = puzzletest.Mini()
	}
	return New(puzzles)
}

func TestDaily_Deterministic(t *testing.T) {
	c := miniCatalog("a", "b", "c", "d", "e", "f", "g")
	day := time.Date(2025, time.May, 1, 23, 59, 0, 0, time.UTC)

	e, _ := c.Daily(day, "salt")
	again, _ := c.Daily(day.Add(-12*time.Hour), "salt")
	assert.Equal(t, e.ID, again.ID, "same UTC day")

	seen := map[string]bool{}
	for d := 0; d < 60; d++ {
		e, _ := c.Daily(day.AddDate(0, 0, d), "salt")
		seen[e.ID] = true
	}
	assert.Greater(t, len(seen), 1, "pick should vary by day")
}

func TestDaily_StableWhenCatalogGrows(t *testing.T) {
	small := miniCatalog("a", "b", "c")
	large := miniCatalog("a", "b", "c", "d")
	day := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

	moved := 0
	for d := 0; d < 120; d++ {
		before, _ := small.Daily(day.AddDate(0, 0, d), "salt")
		after, _ := large.Daily(day.AddDate(0, 0, d), "salt")
		if before.ID != after.ID {
			assert.Equal(t, "d", after.ID, "only the new puzzle can take a day")
			moved++
		}
	}
	assert.Less(t, moved, 120)
}

func TestDaily(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	day := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	e, p := c.Daily(day, "salt")
	require.NotNil(t, p)

	again, err := c.Get(e.ID)
	require.NoError(t, err)
	assert.Same(t, again, p)

	_, p = New(nil).Daily(day, "salt")
	assert.Nil(t, p)
}

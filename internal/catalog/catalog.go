// internal/catalog/catalog.go
//
// Puzzle catalog: the set of puzzles rooms can select.
//
// Sources, later ones overriding earlier ones by ID:
//   1. Puzzles embedded in the binary (assets.Puzzles).
//   2. Files in an optional directory (PUZZLE_DIR).
//
// A puzzle's ID is its file name without extension. Files ending in .json
// are parsed as JSON, .yaml/.yml as YAML; anything else is ignored.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword-rooms/assets"
	"github.com/robalobadob/crossword-rooms/internal/puzzle"
	"github.com/robalobadob/crossword-rooms/internal/snapshot"
)

// ErrUnknownPuzzle is returned by Get for IDs not in the catalog.
var ErrUnknownPuzzle = errors.New("unknown puzzle")

// Entry describes a puzzle without revealing its grid.
type Entry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
	Published string `json:"published,omitempty"`
	Rows      int    `json:"rows"`
	Cols      int    `json:"cols"`
}

// Catalog is an immutable set of puzzles keyed by ID.
type Catalog struct {
	ids     []string                  // sorted
	puzzles map[string]*puzzle.Puzzle // keyed by ID
}

// Load builds a catalog from the embedded puzzles plus, when dir is not
// empty, every puzzle file in dir.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{puzzles: make(map[string]*puzzle.Puzzle)}
	if err := c.add(assets.Puzzles()); err != nil {
		return nil, fmt.Errorf("embedded puzzles: %w", err)
	}
	if dir != "" {
		if err := c.add(os.DirFS(dir)); err != nil {
			return nil, fmt.Errorf("puzzle dir %s: %w", dir, err)
		}
	}
	if len(c.puzzles) == 0 {
		return nil, errors.New("catalog: no puzzles loaded")
	}
	return c, nil
}

// New builds a catalog from already parsed puzzles.
func New(puzzles map[string]*puzzle.Puzzle) *Catalog {
	c := &Catalog{puzzles: make(map[string]*puzzle.Puzzle, len(puzzles))}
	for id, p := range puzzles {
		c.puzzles[id] = p
	}
	c.reindex()
	return c
}

// add parses every puzzle file at the root of fsys.
func (c *Catalog) add(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(path.Ext(name))

		var decode func([]byte) (*puzzle.Puzzle, error)
		switch ext {
		case ".json":
			decode = snapshot.DecodePuzzleJSON
		case ".yaml", ".yml":
			decode = snapshot.DecodePuzzleYAML
		default:
			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		p, err := decode(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		id := strings.TrimSuffix(name, path.Ext(name))
		if _, dup := c.puzzles[id]; dup {
			log.Debug().Str("id", id).Msg("puzzle overridden")
		}
		c.puzzles[id] = p
	}
	c.reindex()
	return nil
}

func (c *Catalog) reindex() {
	c.ids = c.ids[:0]
	for id := range c.puzzles {
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)
}

// Len returns the number of puzzles.
func (c *Catalog) Len() int { return len(c.ids) }

// Get returns the puzzle with the given ID.
func (c *Catalog) Get(id string) (*puzzle.Puzzle, error) {
	p, ok := c.puzzles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPuzzle, id)
	}
	return p, nil
}

// List returns an entry per puzzle, ordered by ID.
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.entry(id))
	}
	return out
}

func (c *Catalog) entry(id string) Entry {
	p := c.puzzles[id]
	e := Entry{
		ID:        id,
		Title:     p.Title,
		Author:    p.Author,
		Publisher: p.Publisher,
		Rows:      p.Rows,
		Cols:      p.Cols,
	}
	if !p.Published.IsZero() {
		e.Published = p.Published.Format(snapshot.PublishedLayout)
	}
	return e
}

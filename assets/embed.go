// Package assets embeds the default puzzle catalog.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed puzzles
var files embed.FS

// Puzzles returns the embedded puzzle files (JSON or YAML) at the root of
// the returned filesystem.
func Puzzles() fs.FS {
	sub, err := fs.Sub(files, "puzzles")
	if err != nil {
		panic(err)
	}
	return sub
}

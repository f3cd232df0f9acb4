package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/robalobadob/crossword-rooms/internal/catalog"
	"github.com/robalobadob/crossword-rooms/internal/session"
	"github.com/robalobadob/crossword-rooms/internal/snapshot"
)

type solveOptions struct {
	Dir         string
	OnlyCorrect bool
	NoClearing  bool
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve <puzzle-id> [clue=answer ...]",
		Short: "Apply answers to a puzzle offline",
		Long: `Start a solve of a catalog puzzle, apply the given answers in order and print
the resulting grid. Answers use the room answer syntax: "." is a blank cell
and "(...)" fills one cell with several letters.

Example:
  crossword-rooms solve mini-rebus 1a=CAT "7a=AM(RED)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.Dir
			if dir == "" {
				dir = rootOpts.Config.PuzzleDir
			}
			cat, err := catalog.Load(dir)
			if err != nil {
				return err
			}
			p, err := cat.Get(args[0])
			if err != nil {
				return err
			}

			st, rejected, err := solve(session.New(p), args[1:], !opts.NoClearing, opts.OnlyCorrect, time.Now(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(snapshot.FromState(st)); err != nil {
					return err
				}
			} else {
				printGrid(cmd.OutOrStdout(), st)
			}
			if rejected > 0 {
				return fmt.Errorf("%d answer(s) rejected", rejected)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "extra puzzle directory (overrides PUZZLE_DIR)")
	cmd.Flags().BoolVar(&opts.OnlyCorrect, "only-correct", false, "reject answers that put a wrong letter in any cell")
	cmd.Flags().BoolVar(&opts.NoClearing, "no-clearing", false, `blank cells in an answer keep existing letters`)

	return cmd
}

// solve starts the timer and applies each "clue=answer" pair. Rejected
// answers are reported to errw and skipped.
func solve(st session.State, pairs []string, allowClearing, onlyCorrect bool, now time.Time, errw io.Writer) (session.State, int, error) {
	st, err := session.TogglePlayPause(st, now)
	if err != nil {
		return st, 0, err
	}

	rejected := 0
	for _, pair := range pairs {
		clue, text, ok := strings.Cut(pair, "=")
		if !ok {
			return st, rejected, fmt.Errorf("bad answer %q: want clue=answer", pair)
		}
		if onlyCorrect {
			if err := session.CheckAnswer(st, clue, text, allowClearing); err != nil {
				fmt.Fprintf(errw, "%s: %v\n", clue, err)
				rejected++
				continue
			}
		}
		next, err := session.ApplyAnswer(st, clue, text, allowClearing, now)
		if err != nil {
			fmt.Fprintf(errw, "%s: %v\n", clue, err)
			rejected++
			continue
		}
		st = next
	}
	return st, rejected, nil
}

// printGrid writes the grid with blocks as "#" and empty cells as "_".
func printGrid(w io.Writer, st session.State) {
	width := 1
	for _, row := range st.Cells {
		for _, cell := range row {
			width = max(width, len(cell))
		}
	}

	for r, row := range st.Cells {
		cells := make([]string, len(row))
		for c, cell := range row {
			switch {
			case st.Puzzle.IsBlock(r, c):
				cell = "#"
			case cell == "":
				cell = "_"
			}
			cells[c] = fmt.Sprintf("%-*s", width, cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " "))
	}

	filled := 0
	for _, ok := range st.AcrossFilled {
		if ok {
			filled++
		}
	}
	fmt.Fprintf(w, "\nstatus: %s  across filled: %d/%d\n", st.Status, filled, len(st.AcrossFilled))
}

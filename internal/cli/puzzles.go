package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/robalobadob/crossword-rooms/internal/catalog"
)

type puzzlesOptions struct {
	Dir   string
	Daily bool
	Date  string
}

// NewPuzzlesCommand creates the puzzles command.
func NewPuzzlesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &puzzlesOptions{}

	cmd := &cobra.Command{
		Use:   "puzzles",
		Short: "List the puzzle catalog",
		Long: `List every puzzle the server would offer: the embedded puzzles plus the
files in --dir (or PUZZLE_DIR). With --daily, print only the puzzle of the day.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.Dir
			if dir == "" {
				dir = rootOpts.Config.PuzzleDir
			}
			cat, err := catalog.Load(dir)
			if err != nil {
				return err
			}

			entries := cat.List()
			if opts.Daily {
				date := time.Now()
				if opts.Date != "" {
					if date, err = time.Parse("2006-01-02", opts.Date); err != nil {
						return fmt.Errorf("invalid --date: %w", err)
					}
				}
				e, _ := cat.Daily(date, rootOpts.Config.DailySalt)
				entries = []catalog.Entry{e}
			}
			return printEntries(cmd, rootOpts.Format, entries)
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "extra puzzle directory (overrides PUZZLE_DIR)")
	cmd.Flags().BoolVar(&opts.Daily, "daily", false, "show only the puzzle of the day")
	cmd.Flags().StringVar(&opts.Date, "date", "", "date for --daily (YYYY-MM-DD, default today)")

	return cmd
}

func printEntries(cmd *cobra.Command, format string, entries []catalog.Entry) error {
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSIZE\tTITLE\tAUTHOR\tPUBLISHED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%dx%d\t%s\t%s\t%s\n", e.ID, e.Rows, e.Cols, e.Title, e.Author, e.Published)
	}
	return tw.Flush()
}

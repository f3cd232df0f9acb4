package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword-rooms/internal/catalog"
	"github.com/robalobadob/crossword-rooms/internal/config"
	"github.com/robalobadob/crossword-rooms/internal/puzzle/puzzletest"
	"github.com/robalobadob/crossword-rooms/internal/session"
	"github.com/robalobadob/crossword-rooms/internal/snapshot"
	"github.com/robalobadob/crossword-rooms/internal/store"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	for _, k := range []string{"STORE_BACKEND", "PORT", "PUZZLE_DIR", "ROOM_TTL", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("DAILY_SALT", "salt")

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "crossword-rooms", cmd.Use)

	for _, name := range []string{"serve", "puzzles", "solve"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestServeFlags(t *testing.T) {
	cmd := NewRootCommand()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	port := serve.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
	assert.NotNil(t, serve.Flags().Lookup("store"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := run(t, "puzzles", "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestPuzzles(t *testing.T) {
	out, _, err := run(t, "puzzles")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, out, "mini-rebus")
	assert.Contains(t, out, "5x5")

	out, _, err = run(t, "puzzles", "--format", "json")
	require.NoError(t, err)
	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "bat-square", entries[0].ID)
}

func TestPuzzles_Daily(t *testing.T) {
	out, _, err := run(t, "puzzles", "--daily", "--date", "2024-06-01", "--format", "json")
	require.NoError(t, err)
	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)

	cat, err := catalog.Load("")
	require.NoError(t, err)
	want, _ := cat.Daily(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "salt")
	assert.Equal(t, want.ID, entries[0].ID)

	_, _, err = run(t, "puzzles", "--daily", "--date", "June")
	assert.Error(t, err)
}

func TestSolve_Complete(t *testing.T) {
	out, _, err := run(t, "solve", "mini-rebus", "1a=CAT", "4a=ORES", "6a=BEAR", "7a=AM(RED)")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "C   A   T   #", lines[0])
	assert.Equal(t, "#   A   M   RED", lines[3])
	assert.Contains(t, out, "status: complete")
}

func TestSolve_JSON(t *testing.T) {
	out, _, err := run(t, "solve", "mini-rebus", "1a=CAT", "--format", "json")
	require.NoError(t, err)

	var w snapshot.State
	require.NoError(t, json.Unmarshal([]byte(out), &w))
	assert.Equal(t, "playing", w.State)
	assert.True(t, w.AcrossFilled["1"])
	assert.Nil(t, w.Cells[0][3])
}

func TestSolve_Rejected(t *testing.T) {
	_, stderr, err := run(t, "solve", "mini-rebus", "1a=CA", "9d=X", "--only-correct", "4a=OXES")
	assert.ErrorContains(t, err, "3 answer(s) rejected")
	assert.Contains(t, stderr, "1a: ")
	assert.Contains(t, stderr, "9d: ")
	assert.Contains(t, stderr, "4a: ")

	_, _, err = run(t, "solve", "mini-rebus", "1a")
	assert.ErrorContains(t, err, "want clue=answer")

	_, _, err = run(t, "solve", "no-such-puzzle")
	assert.ErrorIs(t, err, catalog.ErrUnknownPuzzle)
}

func TestSolveHelper_NoClearing(t *testing.T) {
	var errw bytes.Buffer
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	st, rejected, err := solve(session.New(puzzletest.Mini()), []string{"1a=CAT", "1a=..X"}, false, false, now, &errw)
	require.NoError(t, err)
	assert.Zero(t, rejected)
	assert.Equal(t, []string{"C", "A", "X", "#"}, st.Cells[0])

	st, _, err = solve(session.New(puzzletest.Mini()), []string{"1a=CAT", "1a=..X"}, true, false, now, &errw)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "X", "#"}, st.Cells[0])
}

func TestOpenKV(t *testing.T) {
	db, err := store.OpenDB(t.TempDir() + "/rooms.db")
	require.NoError(t, err)
	defer db.Close()

	for _, backend := range []string{config.BackendMemory, config.BackendSQLite, config.BackendBadger} {
		t.Run(backend, func(t *testing.T) {
			kv, err := openKV(&config.Config{StoreBackend: backend, BadgerPath: t.TempDir()}, db)
			require.NoError(t, err)
			assert.NoError(t, kv.Close())
		})
	}

	_, err = openKV(&config.Config{StoreBackend: "redis"}, db)
	assert.Error(t, err)
}

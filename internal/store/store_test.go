package store

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/crossword-rooms/internal/puzzle/puzzletest"
	"github.com/robalobadob/crossword-rooms/internal/session"
)

// fakeClock is a settable time source for backends that take one.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type backend struct {
	name string
	open func(t *testing.T, clock *fakeClock) KV
	// clocked is false for backends that read the real clock.
	clocked bool
}

func backends() []backend {
	return []backend{
		{
			name:    "memory",
			clocked: true,
			open: func(t *testing.T, clock *fakeClock) KV {
				m := NewMemory()
				m.now = clock.now
				return m
			},
		},
		{
			name:    "sqlite",
			clocked: true,
			open: func(t *testing.T, clock *fakeClock) KV {
				db, err := OpenDB(filepath.Join(t.TempDir(), "rooms.db"))
				require.NoError(t, err)
				t.Cleanup(func() { db.Close() })
				require.NoError(t, Migrate(db))

				s := NewSQLite(db)
				s.now = clock.now
				return s
			},
		},
		{
			name: "badger",
			open: func(t *testing.T, _ *fakeClock) KV {
				b, err := OpenBadger(BadgerConfig{InMemory: true})
				require.NoError(t, err)
				t.Cleanup(func() { b.Close() })
				return b
			},
		},
	}
}

func TestKV_Basic(t *testing.T) {
	ctx := context.Background()
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			kv := be.open(t, &fakeClock{t: time.Now()})

			_, err := kv.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Set(ctx, "room:a", []byte("one"), time.Hour))
			require.NoError(t, kv.Set(ctx, "room:b", []byte("two"), 0))
			require.NoError(t, kv.Set(ctx, "settings:a", []byte("{}"), time.Hour))

			v, err := kv.Get(ctx, "room:a")
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), v)

			require.NoError(t, kv.Set(ctx, "room:a", []byte("uno"), time.Hour))
			v, err = kv.Get(ctx, "room:a")
			require.NoError(t, err)
			assert.Equal(t, []byte("uno"), v)

			keys, err := kv.Keys(ctx, "room:")
			require.NoError(t, err)
			sort.Strings(keys)
			assert.Equal(t, []string{"room:a", "room:b"}, keys)

			require.NoError(t, kv.Delete(ctx, "room:a"))
			require.NoError(t, kv.Delete(ctx, "room:a"))
			_, err = kv.Get(ctx, "room:a")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, kv.Expire(ctx, "room:a", time.Hour), ErrNotFound)
			assert.NoError(t, kv.Expire(ctx, "room:b", time.Hour))
			assert.NoError(t, kv.GC(ctx))
		})
	}
}

func TestKV_TTL(t *testing.T) {
	ctx := context.Background()
	for _, be := range backends() {
		if !be.clocked {
			continue
		}
		t.Run(be.name, func(t *testing.T) {
			clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			kv := be.open(t, clock)

			require.NoError(t, kv.Set(ctx, "room:short", []byte("x"), time.Minute))
			require.NoError(t, kv.Set(ctx, "room:forever", []byte("y"), 0))

			clock.advance(30 * time.Second)
			require.NoError(t, kv.Expire(ctx, "room:short", time.Minute))

			clock.advance(45 * time.Second)
			_, err := kv.Get(ctx, "room:short")
			require.NoError(t, err, "expiry was refreshed")

			clock.advance(time.Minute)
			_, err = kv.Get(ctx, "room:short")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, kv.Expire(ctx, "room:short", time.Minute), ErrNotFound)

			keys, err := kv.Keys(ctx, "room:")
			require.NoError(t, err)
			assert.Equal(t, []string{"room:forever"}, keys)

			require.NoError(t, kv.GC(ctx))
			_, err = kv.Get(ctx, "room:forever")
			assert.NoError(t, err)
		})
	}
}

func TestMemory_GCDropsExpired(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := NewMemory()
	m.now = clock.now
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))
	clock.advance(2 * time.Second)

	assert.Equal(t, 2, m.Len())
	require.NoError(t, m.GC(ctx))
	assert.Equal(t, 1, m.Len())
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	in := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", in, 0))
	in[0] = 'X'

	out, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)
	out[1] = 'Y'

	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "nested", "rooms.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	for _, be := range backends() {
		t.Run(be.name, func(t *testing.T) {
			sessions := NewSessions(be.open(t, &fakeClock{t: time.Now()}), time.Hour)

			_, err := sessions.Load(ctx, "kitchen")
			assert.ErrorIs(t, err, ErrNotFound)

			st := session.New(puzzletest.Mini())
			st, err = session.TogglePlayPause(st, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			st, err = session.ApplyAnswer(st, "7a", "AM(RED)", false, time.Now())
			require.NoError(t, err)

			require.NoError(t, sessions.Save(ctx, "kitchen", st))
			require.NoError(t, sessions.Save(ctx, "attic", session.New(puzzletest.Mini())))

			loaded, err := sessions.Load(ctx, "kitchen")
			require.NoError(t, err)
			assert.Equal(t, st.Cells, loaded.Cells)
			assert.Equal(t, st.Status, loaded.Status)
			assert.Equal(t, st.AcrossFilled, loaded.AcrossFilled)

			names, err := sessions.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"attic", "kitchen"}, names)

			type settings struct {
				ShowNotes bool `json:"show_notes"`
			}
			var got settings
			assert.ErrorIs(t, sessions.LoadSettings(ctx, "kitchen", &got), ErrNotFound)
			require.NoError(t, sessions.SaveSettings(ctx, "kitchen", settings{ShowNotes: true}))
			require.NoError(t, sessions.LoadSettings(ctx, "kitchen", &got))
			assert.True(t, got.ShowNotes)

			type meta struct {
				PuzzleID string `json:"puzzle_id"`
			}
			require.NoError(t, sessions.SaveMeta(ctx, "kitchen", meta{PuzzleID: "mini"}))
			var m meta
			require.NoError(t, sessions.LoadMeta(ctx, "kitchen", &m))
			assert.Equal(t, "mini", m.PuzzleID)

			require.NoError(t, sessions.Delete(ctx, "kitchen"))
			_, err = sessions.Load(ctx, "kitchen")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, sessions.LoadSettings(ctx, "kitchen", &got), ErrNotFound)
			assert.ErrorIs(t, sessions.LoadMeta(ctx, "kitchen", &m), ErrNotFound)
		})
	}
}

func TestSessions_LoadRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	m := NewMemory()
	m.now = clock.now
	sessions := NewSessions(m, time.Hour)

	require.NoError(t, sessions.Save(ctx, "den", session.New(puzzletest.Mini())))
	for i := 0; i < 5; i++ {
		clock.advance(50 * time.Minute)
		_, err := sessions.Load(ctx, "den")
		require.NoError(t, err)
	}

	clock.advance(61 * time.Minute)
	_, err := sessions.Load(ctx, "den")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessions_CorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "room:broken", []byte(`{"state":"playing"}`), 0))

	_, err := NewSessions(m, time.Hour).Load(ctx, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRunGC_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunGC(ctx, NewMemory(), time.Millisecond) }()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RunGC did not stop")
	}
}

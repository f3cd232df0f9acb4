// internal/store/store.go
//
// Session store: persistence for room snapshots.
//
// Layers:
//   - KV:       byte-oriented key/value store with per-key TTL. Backends live
//               in memory.go, sqlite.go and badger.go.
//   - Sessions: typed access on top of a KV. Room snapshots are stored under
//               "room:<name>" as the JSON produced by internal/snapshot.
//
// Notes:
//   - Every load refreshes the room's TTL, so active rooms never expire.
//   - Read-modify-write sequences are NOT atomic here; callers serialize
//     them per room (see internal/room).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword-rooms/internal/session"
	"github.com/robalobadob/crossword-rooms/internal/snapshot"
)

// ErrNotFound is returned for missing or expired keys.
var ErrNotFound = errors.New("not found")

// KV is a key/value store with expiring keys. A ttl <= 0 means the key
// never expires.
type KV interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set creates or replaces key.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Expire resets the TTL of an existing key. Returns ErrNotFound if the
	// key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns every live key starting with prefix, in no particular
	// order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// GC reclaims space held by expired keys.
	GC(ctx context.Context) error

	Close() error
}

const (
	roomPrefix     = "room:"
	settingsPrefix = "settings:"
	metaPrefix     = "meta:"
)

// Sessions stores room snapshots and their side records in a KV.
type Sessions struct {
	kv  KV
	ttl time.Duration
}

// NewSessions wraps kv. Every key written expires after ttl of inactivity.
func NewSessions(kv KV, ttl time.Duration) *Sessions {
	return &Sessions{kv: kv, ttl: ttl}
}

// Load returns the snapshot for room and refreshes its TTL.
func (s *Sessions) Load(ctx context.Context, room string) (session.State, error) {
	data, err := s.kv.Get(ctx, roomPrefix+room)
	if err != nil {
		return session.State{}, err
	}
	st, err := snapshot.DecodeState(data)
	if err != nil {
		return session.State{}, fmt.Errorf("load room %s: %w", room, err)
	}
	s.touch(ctx, room)
	return st, nil
}

// Save stores the snapshot for room.
func (s *Sessions) Save(ctx context.Context, room string, st session.State) error {
	data, err := snapshot.EncodeState(st)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room, err)
	}
	return s.kv.Set(ctx, roomPrefix+room, data, s.ttl)
}

// Delete removes room and its side records.
func (s *Sessions) Delete(ctx context.Context, room string) error {
	for _, key := range keysFor(room) {
		if err := s.kv.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the names of every live room, sorted.
func (s *Sessions) Names(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, roomPrefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, roomPrefix))
	}
	sort.Strings(names)
	return names, nil
}

// LoadSettings decodes the room's settings into v. Returns ErrNotFound when
// none were saved.
func (s *Sessions) LoadSettings(ctx context.Context, room string, v any) error {
	return s.loadJSON(ctx, settingsPrefix+room, v)
}

// SaveSettings stores v as the room's settings.
func (s *Sessions) SaveSettings(ctx context.Context, room string, v any) error {
	return s.saveJSON(ctx, settingsPrefix+room, v)
}

// LoadMeta decodes the room's metadata (puzzle ID, owner) into v.
func (s *Sessions) LoadMeta(ctx context.Context, room string, v any) error {
	return s.loadJSON(ctx, metaPrefix+room, v)
}

// SaveMeta stores v as the room's metadata.
func (s *Sessions) SaveMeta(ctx context.Context, room string, v any) error {
	return s.saveJSON(ctx, metaPrefix+room, v)
}

func (s *Sessions) loadJSON(ctx context.Context, key string, v any) error {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Sessions) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, data, s.ttl)
}

func keysFor(room string) []string {
	return []string{roomPrefix + room, settingsPrefix + room, metaPrefix + room}
}

// touch extends the TTL of the room and its side records. Missing side
// records are fine.
func (s *Sessions) touch(ctx context.Context, room string) {
	for _, key := range keysFor(room) {
		_ = s.kv.Expire(ctx, key, s.ttl)
	}
}

// RunGC calls kv.GC every interval until ctx is done. GC failures are
// logged and retried on the next tick.
func RunGC(ctx context.Context, kv KV, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := kv.GC(ctx); err != nil {
				log.Warn().Err(err).Msg("store gc failed")
			}
		}
	}
}

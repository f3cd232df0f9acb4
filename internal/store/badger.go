// internal/store/badger.go
//
// BadgerDB-backed KV. Expiry uses Badger's native per-entry TTL; GC runs
// value-log garbage collection, since Badger drops expired keys on its own
// during compaction.

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BadgerConfig holds configuration for a Badger-backed KV.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Used by tests.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// GCDiscardRatio is the minimum discardable ratio before a value log
	// file is rewritten. Default 0.5.
	GCDiscardRatio float64
}

// badgerLogger adapts zerolog to Badger's Logger interface.
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

// Badger is a KV over a BadgerDB instance.
type Badger struct {
	db    *badger.DB
	ratio float64
}

// OpenBadger opens a Badger database according to cfg.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger: path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{logger: log.With().Str("component", "badger").Logger().Level(zerolog.WarnLevel)})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	ratio := cfg.GCDiscardRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}
	return &Badger{db: db, ratio: ratio}, nil
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return out, err
}

func (b *Badger) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Expire rewrites the entry with a new TTL; Badger has no in-place TTL
// update.
func (b *Badger) Expire(_ context.Context, key string, ttl time.Duration) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

func (b *Badger) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *Badger) Keys(_ context.Context, prefix string) ([]string, error) {
	var out []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			out = append(out, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return out, err
}

// GC runs one value log GC pass. ErrNoRewrite means nothing needed doing.
func (b *Badger) GC(_ context.Context) error {
	if b.db.Opts().InMemory {
		return nil
	}
	err := b.db.RunValueLogGC(b.ratio)
	if err == nil {
		log.Debug().Msg("badger value log GC completed")
		return nil
	}
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
		return nil
	}
	return err
}

func (b *Badger) Close() error {
	return b.db.Close()
}

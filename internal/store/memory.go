// internal/store/memory.go
//
// In-memory implementation of KV.
// Used for development, tests, and single-process deployments where rooms
// need not survive a restart.
//
// Characteristics:
//   - Values keyed by string in a map, each with an optional expiry.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Expired keys are invisible immediately and removed by GC.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	expires time.Time // zero means never
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Memory is a map-based KV.
type Memory struct {
	mu      sync.RWMutex           // guards entries
	entries map[string]memoryEntry // keyed by KV key
	now     func() time.Time
}

// NewMemory constructs an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

// Get returns a copy of the stored value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || e.expired(m.now()) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), expires: m.expiry(ttl)}
	return nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || e.expired(m.now()) {
		return ErrNotFound
	}
	e.expires = m.expiry(ttl)
	m.entries[key] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	var out []string
	for k, e := range m.entries {
		if strings.HasPrefix(k, prefix) && !e.expired(now) {
			out = append(out, k)
		}
	}
	return out, nil
}

// GC drops expired entries.
func (m *Memory) GC(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Len returns the number of entries held, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }

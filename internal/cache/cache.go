// Package cache stores computed metrics views keyed by view name, each
// with the time it was computed. Freshness is decided by the reader against
// a TTL; backends only keep the latest entry per key.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrMiss is returned by Get when no entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Entry is one cached metrics payload.
type Entry struct {
	Metrics     json.RawMessage `json:"metrics"`
	LastUpdated time.Time       `json:"last_updated"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry) Fresh(ttl time.Duration, now time.Time) bool {
	if e.LastUpdated.IsZero() || len(e.Metrics) == 0 {
		return false
	}
	return now.Sub(e.LastUpdated) < ttl
}

// Store is a key/value store for cache entries.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	Put(ctx context.Context, key string, e Entry) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Name() string
}

// Key builds the cache id for a view and date filter, e.g.
// "dashboard_cache_latest" or "trends_cache_latest:week".
func Key(view, filter string) string {
	k := fmt.Sprintf("%s_cache_latest", view)
	if filter != "" && filter != "all" {
		k += ":" + filter
	}
	return k
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, ErrMiss
	}
	return e, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

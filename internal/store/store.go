// Package store implements the TTL-bounded per-key stores the engine keeps
// for the most recent signal, phase and trend state per ticker. Expiry is
// lazy (checked on read) rather than swept by a janitor goroutine — these
// stores are small and read far more than they are written, so a
// background sweep buys nothing. MemoryBackend is the default; RedisBackend
// (redis.go) implements the same Backend contract for sharing state across
// replicas.
package store

import (
	"sync"
	"time"

	"github.com/sawpanic/tradingengine/internal/clock"
)

type entry struct {
	value      []byte
	expiresAt  time.Time
	receivedAt time.Time
}

// MemoryBackend is a generic TTL-bounded keyed store with out-of-order
// write protection: a Put whose receivedAt is older than the stored
// entry's is silently dropped rather than overwriting newer state.
type MemoryBackend struct {
	mu    sync.RWMutex
	clock clock.Clock
	items map[string]entry
}

// NewMemoryBackend returns an empty backend using clk for "now".
func NewMemoryBackend(clk clock.Clock) *MemoryBackend {
	return &MemoryBackend{clock: clk, items: make(map[string]entry)}
}

func (s *MemoryBackend) Put(key string, valueJSON []byte, ttl time.Duration, receivedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.items[key]; ok {
		if s.clock.Now().Before(existing.expiresAt) && receivedAt.Before(existing.receivedAt) {
			return false, nil
		}
	}

	s.items[key] = entry{
		value:      valueJSON,
		expiresAt:  receivedAt.Add(ttl),
		receivedAt: receivedAt,
	}
	return true, nil
}

func (s *MemoryBackend) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[key]
	if !ok || !s.clock.Now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryBackend) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// ActiveKeys returns every key whose entry has not yet expired.
func (s *MemoryBackend) ActiveKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	keys := make([]string, 0, len(s.items))
	for k, e := range s.items {
		if now.Before(e.expiresAt) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Prune removes every expired entry and reports how many were removed. Not
// required for correctness (Get/Put already treat expired entries as
// absent) — callers use it to bound memory on long-lived processes.
func (s *MemoryBackend) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for k, e := range s.items {
		if !now.Before(e.expiresAt) {
			delete(s.items, k)
			removed++
		}
	}
	return removed
}

// Len reports the raw entry count, including not-yet-pruned expired ones.
func (s *MemoryBackend) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

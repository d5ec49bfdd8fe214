package rate

import (
	"context"
	"sync"
	"time"
)

const pruneInterval = time.Minute

type memoryEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is the process-local CounterStore: a mutex-guarded map with
// opportunistic pruning of expired windows on write. Best effort by design;
// not shared across processes.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	lastPrune time.Time
	now       func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// Increment implements CounterStore.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		entry = &memoryEntry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = entry
		return 1, entry.resetAt, nil
	}

	entry.count++
	return entry.count, entry.resetAt, nil
}

// Len reports the number of live entries, expired ones included until the
// next prune.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) pruneLocked(now time.Time) {
	if now.Sub(s.lastPrune) < pruneInterval {
		return
	}
	s.lastPrune = now

	for key, entry := range s.entries {
		if !now.Before(entry.resetAt) {
			delete(s.entries, key)
		}
	}
}

package lockout

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store. Suitable for tests and single-node
// deployments; a durable store is required for lockout to survive restarts.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, principalID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[principalID], nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, principalID string, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[principalID] = record
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, principalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, principalID)
	return nil
}

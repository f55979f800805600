package index

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and storage-free
// deployments. Semantics match the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*int64)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, messageID string) (*int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	galleryID, ok := s.entries[messageID]
	if !ok {
		return nil, false, nil
	}
	if galleryID == nil {
		return nil, true, nil
	}
	value := *galleryID
	return &value, true, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, messageID string, galleryID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[messageID]; ok && existing != nil {
		return nil
	}
	if galleryID == nil {
		s.entries[messageID] = nil
		return nil
	}
	value := *galleryID
	s.entries[messageID] = &value
	return nil
}

// Len returns the number of recorded entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

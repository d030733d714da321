package numbering

import (
	"context"
	"sync"
)

// MemoryStore keeps counters in process memory. It is suitable for tests and a
// single-instance development setup only.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]int64)}
}

func memoryKey(docType DocType, scope string) string {
	return string(docType) + "|" + scope
}

// Read implements Store.
func (s *MemoryStore) Read(_ context.Context, docType DocType, scope string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.counters[memoryKey(docType, scope)]
	return v, ok, nil
}

// Commit implements Store.
func (s *MemoryStore) Commit(_ context.Context, docType DocType, scope string, prev, next int64) error {
	if err := checkCommit(docType, prev, next); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey(docType, scope)
	if s.counters[key] != prev {
		return ErrConflict
	}
	s.counters[key] = next
	return nil
}

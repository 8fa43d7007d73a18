package slot

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	value []byte
}

// NewMemory builds a process-local slot for tests and throwaway sessions.
func NewMemory() Store {
	return &memoryStore{}
}

func (s *memoryStore) Read(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.value == nil {
		return nil, ErrEmpty
	}
	return append([]byte(nil), s.value...), nil
}

func (s *memoryStore) Write(_ context.Context, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = append(make([]byte, 0, len(value)), value...)
	return nil
}

func (s *memoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = nil
	return nil
}

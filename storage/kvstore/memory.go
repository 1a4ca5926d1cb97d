// Package kvstore holds the backends of core.KVStore.
package kvstore

import (
	"context"
	"sync"

	"github.com/trezcool/bolsa/core"
)

// MemoryStore keeps values in process memory. Used in tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ core.KVStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

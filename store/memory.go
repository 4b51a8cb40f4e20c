package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// memoryStore keeps collection documents in process memory. Used by tests
// and development setups that do not need durability.
type memoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemory constructs an in-memory Store implementation for tests and development.
func NewMemory() Store {
	return &memoryStore{docs: make(map[string][]byte)}
}

func (s *memoryStore) Load(ctx context.Context, collection string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.docs[collection]
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("store: decode collection %s: %w", collection, err)
	}
	return nil
}

func (s *memoryStore) Save(ctx context.Context, collection string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode collection %s: %w", collection, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[collection] = raw
	return nil
}

func (s *memoryStore) Close() error { return nil }

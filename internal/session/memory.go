package session

import (
	"context"
	"sync"

	"github.com/samber/mo"
)

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token mo.Option[string]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{token: mo.None[string]()}
}

func (s *MemoryStore) Get(context.Context) (mo.Option[string], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemoryStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = mo.Some(token)
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = mo.None[string]()
	return nil
}

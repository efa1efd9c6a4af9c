package questionnaire

import (
	"context"
	"sync"
)

// MemoryProgressStore keeps progress in process. Used when Redis is not
// configured and in tests.
type MemoryProgressStore struct {
	mu    sync.RWMutex
	items map[string]Progress
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{items: make(map[string]Progress)}
}

func (s *MemoryProgressStore) Get(_ context.Context, sessionID string) (*Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[sessionID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryProgressStore) Save(_ context.Context, p *Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.SessionID] = *p
	return nil
}

func (s *MemoryProgressStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
	return nil
}

package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID]Session)}
}

func (m *MemoryStore) CreateSession(_ context.Context, s Session, now time.Time) (*Session, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	s.ID = uuid.New()
	s.CreatedAt = now

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return &s, nil
}

func (m *MemoryStore) GetSession(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) GetCommunitySessions(_ context.Context, communityID uuid.UUID) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Session
	for _, s := range m.sessions {
		if s.CommunityID == communityID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

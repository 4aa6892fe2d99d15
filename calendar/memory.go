package calendar

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu    sync.RWMutex
	creds map[uuid.UUID]Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[uuid.UUID]Credentials)}
}

func (m *MemoryStore) GetCredentials(_ context.Context, creatorID uuid.UUID) (*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.creds[creatorID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryStore) SaveCredentials(_ context.Context, c Credentials) error {
	if c.CalendarID == "" {
		c.CalendarID = DefaultCalendarID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.creds[c.CreatorID]; ok && c.RefreshToken == "" {
		c.RefreshToken = prev.RefreshToken
	}
	m.creds[c.CreatorID] = c
	return nil
}

func (m *MemoryStore) DeleteCredentials(_ context.Context, creatorID uuid.UUID) error {
	m.mu.Lock()
	delete(m.creds, creatorID)
	m.mu.Unlock()
	return nil
}

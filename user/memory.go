package user

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[uuid.UUID]User)}
}

func (m *MemoryStore) CreateUser(_ context.Context, user User, now time.Time) (User, error) {
	if err := user.Validate(); err != nil {
		return User{}, fmt.Errorf("validate: %w", err)
	}
	user.ID = uuid.New()
	user.CreatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return User{}, fmt.Errorf("email %q already registered", user.Email)
		}
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

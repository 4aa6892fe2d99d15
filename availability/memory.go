package availability

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu      sync.RWMutex
	configs map[uuid.UUID]Config
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: make(map[uuid.UUID]Config)}
}

func (m *MemoryStore) GetConfig(_ context.Context, sessionID uuid.UUID) (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[sessionID]
	if !ok {
		return nil, nil
	}
	cfg.RecurringAvailability = slices.Clone(cfg.RecurringAvailability)
	return &cfg, nil
}

func (m *MemoryStore) SaveConfig(_ context.Context, cfg Config, now time.Time) (*Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	cfg.UpdatedAt = now
	cfg.RecurringAvailability = slices.Clone(cfg.RecurringAvailability)
	if cfg.RecurringAvailability == nil {
		cfg.RecurringAvailability = []Rule{}
	}

	m.mu.Lock()
	m.configs[cfg.SessionID] = cfg
	m.mu.Unlock()
	return &cfg, nil
}

func (m *MemoryStore) ListAutoGenerate(_ context.Context) ([]Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var configs []Config
	for _, cfg := range m.configs {
		if cfg.AutoGenerateSlots {
			cfg.RecurringAvailability = slices.Clone(cfg.RecurringAvailability)
			configs = append(configs, cfg)
		}
	}
	sort.Slice(configs, func(i, j int) bool {
		return bytes.Compare(configs[i].SessionID[:], configs[j].SessionID[:]) < 0
	})
	return configs, nil
}

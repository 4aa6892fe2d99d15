package slot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps slots in process. A single mutex serialises claims, which
// gives the same first-claim-wins behaviour as the conditional UPDATE.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[uuid.UUID]Slot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[uuid.UUID]Slot)}
}

func (m *MemoryStore) GetSlot(_ context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) ListAvailable(_ context.Context, sessionID uuid.UUID, from time.Time) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for _, s := range m.slots {
		if s.SessionID == sessionID && s.IsAvailable && !s.StartTime.Before(from) {
			out = append(out, s)
		}
	}
	sortByStart(out)
	return out, nil
}

func (m *MemoryStore) ReplaceWindow(_ context.Context, sessionID uuid.UUID, from, to time.Time, slots []Slot, _ time.Time) (ReplaceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var booked []Slot
	for _, s := range m.slots {
		if s.SessionID == sessionID && !s.IsAvailable && s.StartTime.Before(to) && s.EndTime.After(from) {
			booked = append(booked, s)
		}
	}

	keep, skipped := partition(slots, booked)
	result := ReplaceResult{Skipped: skipped}

	keepIDs := make(map[uuid.UUID]struct{}, len(keep))
	for _, s := range keep {
		keepIDs[s.ID] = struct{}{}
	}

	for id, s := range m.slots {
		if s.SessionID != sessionID || !s.IsAvailable {
			continue
		}
		if s.StartTime.Before(from) || s.StartTime.After(to) {
			continue
		}
		if _, ok := keepIDs[id]; ok {
			continue
		}
		delete(m.slots, id)
		result.Removed++
	}

	for _, s := range keep {
		if _, exists := m.slots[s.ID]; exists {
			continue
		}
		s.SessionID = sessionID
		s.IsAvailable = true
		s.BookedBy = uuid.NullUUID{}
		m.slots[s.ID] = s
		result.Inserted++
	}

	return result, nil
}

func (m *MemoryStore) DeleteAvailableAfter(_ context.Context, sessionID uuid.UUID, after time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.slots {
		if s.SessionID == sessionID && s.IsAvailable && s.StartTime.After(after) {
			delete(m.slots, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Claim(_ context.Context, id, bookingID uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok || !s.IsAvailable {
		return ErrSlotUnavailable
	}
	s.IsAvailable = false
	s.BookedBy = uuid.NullUUID{UUID: bookingID, Valid: true}
	m.slots[id] = s
	return nil
}

func (m *MemoryStore) Release(_ context.Context, id, bookingID uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok || !s.BookedBy.Valid || s.BookedBy.UUID != bookingID {
		return nil
	}
	s.IsAvailable = true
	s.BookedBy = uuid.NullUUID{}
	m.slots[id] = s
	return nil
}

func sortByStart(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
}

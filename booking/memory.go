package booking

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
	bookings map[uuid.UUID]Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[uuid.UUID]Booking)}
}

func (m *MemoryStore) InsertBooking(_ context.Context, b Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.bookings[b.ID]; exists {
		return fmt.Errorf("booking %s already exists", b.ID)
	}
	for _, other := range m.bookings {
		if other.SlotID == b.SlotID && other.Status != StatusCancelled {
			return fmt.Errorf("slot %s already has booking %s", b.SlotID, other.ID)
		}
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *MemoryStore) GetBooking(_ context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status, reason string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.CancelReason = reason
	b.UpdatedAt = now
	m.bookings[id] = b
	return true, nil
}

func (m *MemoryStore) SetMeetingURL(_ context.Context, id uuid.UUID, url string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil
	}
	b.MeetingURL = url
	b.UpdatedAt = now
	m.bookings[id] = b
	return nil
}

func (m *MemoryStore) ListForSession(_ context.Context, sessionID uuid.UUID, status Status) ([]Booking, error) {
	return m.filter(func(b Booking) bool {
		return b.SessionID == sessionID && (status == "" || b.Status == status)
	}), nil
}

func (m *MemoryStore) ListForUser(_ context.Context, userID uuid.UUID) ([]Booking, error) {
	return m.filter(func(b Booking) bool { return b.UserID == userID }), nil
}

func (m *MemoryStore) ListElapsedConfirmed(_ context.Context, now time.Time) ([]Booking, error) {
	return m.filter(func(b Booking) bool {
		return b.Status == StatusConfirmed && !b.EndsAt().After(now)
	}), nil
}

func (m *MemoryStore) filter(keep func(Booking) bool) []Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Booking{}
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

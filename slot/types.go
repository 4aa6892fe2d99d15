package slot

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSlotUnavailable is returned when a claim loses against an existing booking.
	ErrSlotUnavailable = errors.New("slot: unavailable")
	ErrNotFound        = errors.New("slot: not found")
)

// identityNamespace seeds the deterministic slot IDs. Changing it orphans every
// previously generated slot.
var identityNamespace = uuid.MustParse("6f1d3c2e-8a4b-4f7e-9c1d-2b5a7e9f0c13")

type Slot struct {
	ID          uuid.UUID     `json:"id"`
	SessionID   uuid.UUID     `json:"sessionId"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	IsAvailable bool          `json:"isAvailable"`
	BookedBy    uuid.NullUUID `json:"bookedBy"`
}

// New returns an available slot whose ID is derived from the session and the
// slot bounds, so the same window always maps to the same identity.
func New(sessionID uuid.UUID, start, end time.Time) Slot {
	return Slot{
		ID:          Identity(sessionID, start, end),
		SessionID:   sessionID,
		StartTime:   start.UTC(),
		EndTime:     end.UTC(),
		IsAvailable: true,
	}
}

func Identity(sessionID uuid.UUID, start, end time.Time) uuid.UUID {
	key := fmt.Sprintf("%s|%s|%s", sessionID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(identityNamespace, []byte(key))
}

func (s Slot) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Overlaps reports whether the half-open intervals of s and other intersect.
func (s Slot) Overlaps(other Slot) bool {
	return s.StartTime.Before(other.EndTime) && other.StartTime.Before(s.EndTime)
}

// ReplaceResult summarises a regeneration pass over a window.
type ReplaceResult struct {
	Inserted int `json:"inserted"`
	Removed  int `json:"removed"`
	Skipped  int `json:"skipped"`
}

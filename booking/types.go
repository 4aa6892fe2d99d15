package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("booking: invalid transition")
	ErrNotFound          = errors.New("booking: not found")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions lists the allowed moves out of each status. Completed and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID              uuid.UUID `json:"id"`
	SessionID       uuid.UUID `json:"sessionId"`
	SlotID          uuid.UUID `json:"slotId"`
	UserID          uuid.UUID `json:"userId"`
	CreatorID       uuid.UUID `json:"creatorId"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          Status    `json:"status"`
	MeetingURL      string    `json:"meetingUrl,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CancelReason    string    `json:"cancelReason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (b *Booking) EndsAt() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// Involves reports whether userID is the booker or the session creator.
func (b *Booking) Involves(userID uuid.UUID) bool {
	return b.UserID == userID || b.CreatorID == userID
}

type BookRequest struct {
	SessionID uuid.UUID `json:"sessionId"`
	SlotID    uuid.UUID `json:"slotId"`
	UserID    uuid.UUID `json:"userId"`
	Notes     string    `json:"notes"`
}

func (r *BookRequest) Validate() error {
	if r.SessionID == uuid.Nil {
		return errors.New("session ID is required")
	}
	if r.SlotID == uuid.Nil {
		return errors.New("slot ID is required")
	}
	if r.UserID == uuid.Nil {
		return errors.New("user ID is required")
	}
	if len(r.Notes) > 2000 {
		return errors.New("notes must be at most 2000 characters")
	}
	return nil
}

package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is a creator-owned 1-on-1 offering inside a community. Availability,
// slots and bookings all hang off a session.
type Session struct {
	ID              uuid.UUID `json:"id"`
	CommunityID     uuid.UUID `json:"communityId"`
	CreatorID       uuid.UUID `json:"creatorId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"durationMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (s *Session) Validate() error {
	if s.Title == "" {
		return errors.New("title is required")
	}
	if s.CommunityID == uuid.Nil {
		return errors.New("community ID is required")
	}
	if s.CreatorID == uuid.Nil {
		return errors.New("creator ID is required")
	}
	if s.DurationMinutes <= 0 {
		return errors.New("duration minutes must be greater than 0")
	}
	return nil
}

// IsOwnedBy reports whether userID is the creator of the session.
func (s *Session) IsOwnedBy(userID uuid.UUID) bool {
	return s.CreatorID == userID
}

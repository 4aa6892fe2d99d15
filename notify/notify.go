// Package notify publishes booking lifecycle events.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const SubjectPrefix = "bookings"

type Event struct {
	Type       string    `json:"type"`
	BookingID  uuid.UUID `json:"bookingId"`
	SessionID  uuid.UUID `json:"sessionId"`
	SlotID     uuid.UUID `json:"slotId"`
	UserID     uuid.UUID `json:"userId"`
	CreatorID  uuid.UUID `json:"creatorId"`
	Status     string    `json:"status"`
	MeetingURL string    `json:"meetingUrl,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Subject is the NATS subject an event is published on, e.g. bookings.confirmed.
func (e Event) Subject() string {
	return SubjectPrefix + "." + e.Type
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

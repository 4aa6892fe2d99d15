package booking

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Store persists bookings. UpdateStatus only applies when the stored status
// still equals from and reports whether it did.
type Store interface {
	InsertBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, reason string, now time.Time) (bool, error)
	SetMeetingURL(ctx context.Context, id uuid.UUID, url string, now time.Time) error
	ListForSession(ctx context.Context, sessionID uuid.UUID, status Status) ([]Booking, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Booking, error)
	ListElapsedConfirmed(ctx context.Context, now time.Time) ([]Booking, error)
}

type Accessor struct {
	db *sql.DB
}

func NewAccessor(db *sql.DB) *Accessor {
	return &Accessor{db: db}
}

package slot

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Store persists generated slots. Claim must be atomic with respect to
// concurrent callers: exactly one claim on an available slot succeeds.
type Store interface {
	GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListAvailable(ctx context.Context, sessionID uuid.UUID, from time.Time) ([]Slot, error)
	ReplaceWindow(ctx context.Context, sessionID uuid.UUID, from, to time.Time, slots []Slot, now time.Time) (ReplaceResult, error)
	DeleteAvailableAfter(ctx context.Context, sessionID uuid.UUID, after time.Time) (int, error)
	Claim(ctx context.Context, id, bookingID uuid.UUID, now time.Time) error
	Release(ctx context.Context, id, bookingID uuid.UUID, now time.Time) error
}

type Accessor struct {
	db *sql.DB
}

func NewAccessor(db *sql.DB) *Accessor {
	return &Accessor{db: db}
}

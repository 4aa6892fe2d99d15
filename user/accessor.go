package user

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Store is implemented by the postgres Accessor and the in-process MemoryStore.
type Store interface {
	CreateUser(ctx context.Context, user User, now time.Time) (User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}

// Accessor is the DB layer entrypoint for user-related queries.
type Accessor struct {
	db *sql.DB
}

func NewAccessor(db *sql.DB) *Accessor {
	return &Accessor{db: db}
}

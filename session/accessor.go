package session

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	CreateSession(ctx context.Context, s Session, now time.Time) (*Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	GetCommunitySessions(ctx context.Context, communityID uuid.UUID) ([]Session, error)
}

type Accessor struct {
	db *sql.DB
}

func NewAccessor(db *sql.DB) *Accessor {
	return &Accessor{db: db}
}

package calendar

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type TokenStore interface {
	GetCredentials(ctx context.Context, creatorID uuid.UUID) (*Credentials, error)
	SaveCredentials(ctx context.Context, creds Credentials) error
	DeleteCredentials(ctx context.Context, creatorID uuid.UUID) error
}

type Accessor struct {
	db *sql.DB
}

func NewAccessor(db *sql.DB) *Accessor {
	return &Accessor{db: db}
}

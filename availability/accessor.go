package availability

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	GetConfig(ctx context.Context, sessionID uuid.UUID) (*Config, error)
	SaveConfig(ctx context.Context, cfg Config, now time.Time) (*Config, error)
	ListAutoGenerate(ctx context.Context) ([]Config, error)
}

type Accessor struct {
	db *sql.DB
}

func NewAccessor(db *sql.DB) *Accessor {
	return &Accessor{db: db}
}

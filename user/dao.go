package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (a *Accessor) CreateUser(ctx context.Context, user User, now time.Time) (User, error) {
	if err := user.Validate(); err != nil {
		return User{}, fmt.Errorf("validate: %w", err)
	}

	id := uuid.New()

	query := `INSERT INTO users (id, name, email, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := a.db.ExecContext(ctx, query, id, user.Name, user.Email, now); err != nil {
		return User{}, fmt.Errorf("exec context: %w", err)
	}

	return User{
		ID:        id,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: now,
	}, nil
}

// GetUser returns nil without error when the user does not exist.
func (a *Accessor) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User

	query := `SELECT id, name, email, created_at FROM users WHERE id = $1`
	row := a.db.QueryRowContext(ctx, query, id)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	return &user, nil
}

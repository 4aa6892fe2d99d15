package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const selectColumns = `SELECT id, community_id, creator_id, title, description, duration_minutes, created_at FROM sessions`

func (a *Accessor) CreateSession(ctx context.Context, s Session, now time.Time) (*Session, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	id := uuid.New()

	query := `INSERT INTO sessions (id, community_id, creator_id, title, description, duration_minutes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := a.db.ExecContext(ctx, query, id, s.CommunityID, s.CreatorID, s.Title, s.Description, s.DurationMinutes, now); err != nil {
		return nil, fmt.Errorf("exec context: %w", err)
	}

	s.ID = id
	s.CreatedAt = now
	return &s, nil
}

func (a *Accessor) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session

	row := a.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	if err := row.Scan(&s.ID, &s.CommunityID, &s.CreatorID, &s.Title, &s.Description, &s.DurationMinutes, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	return &s, nil
}

func (a *Accessor) GetCommunitySessions(ctx context.Context, communityID uuid.UUID) ([]Session, error) {
	rows, err := a.db.QueryContext(ctx, selectColumns+` WHERE community_id = $1 ORDER BY created_at`, communityID)
	if err != nil {
		return nil, fmt.Errorf("query context: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.CommunityID, &s.CreatorID, &s.Title, &s.Description, &s.DurationMinutes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return sessions, nil
}

package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

func (a *Accessor) GetCredentials(ctx context.Context, creatorID uuid.UUID) (*Credentials, error) {
	var (
		c      Credentials
		expiry sql.NullTime
	)

	query := `SELECT creator_id, access_token, refresh_token, token_type, expiry, calendar_id, updated_at FROM calendar_connections WHERE creator_id = $1`
	row := a.db.QueryRowContext(ctx, query, creatorID)
	if err := row.Scan(&c.CreatorID, &c.AccessToken, &c.RefreshToken, &c.TokenType, &expiry, &c.CalendarID, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	if expiry.Valid {
		c.Expiry = expiry.Time
	}

	return &c, nil
}

func (a *Accessor) SaveCredentials(ctx context.Context, c Credentials) error {
	if c.CalendarID == "" {
		c.CalendarID = DefaultCalendarID
	}
	expiry := sql.NullTime{Time: c.Expiry, Valid: !c.Expiry.IsZero()}

	query := `INSERT INTO calendar_connections (creator_id, access_token, refresh_token, token_type, expiry, calendar_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (creator_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token = '' THEN calendar_connections.refresh_token ELSE EXCLUDED.refresh_token END,
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			calendar_id = EXCLUDED.calendar_id,
			updated_at = EXCLUDED.updated_at`
	_, err := a.db.ExecContext(ctx, query, c.CreatorID, c.AccessToken, c.RefreshToken, c.TokenType, expiry, c.CalendarID, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("exec context: %w", err)
	}
	return nil
}

func (a *Accessor) DeleteCredentials(ctx context.Context, creatorID uuid.UUID) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM calendar_connections WHERE creator_id = $1`, creatorID)
	if err != nil {
		return fmt.Errorf("exec context: %w", err)
	}
	return nil
}

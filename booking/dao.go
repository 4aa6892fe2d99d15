package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const selectColumns = `SELECT id, session_id, slot_id, user_id, creator_id, scheduled_at, duration_minutes, status, meeting_url, notes, cancel_reason, created_at, updated_at FROM bookings`

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.SessionID, &b.SlotID, &b.UserID, &b.CreatorID, &b.ScheduledAt, &b.DurationMinutes,
		&b.Status, &b.MeetingURL, &b.Notes, &b.CancelReason, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (a *Accessor) InsertBooking(ctx context.Context, b Booking) error {
	query := `INSERT INTO bookings (id, session_id, slot_id, user_id, creator_id, scheduled_at, duration_minutes, status, meeting_url, notes, cancel_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := a.db.ExecContext(ctx, query, b.ID, b.SessionID, b.SlotID, b.UserID, b.CreatorID, b.ScheduledAt, b.DurationMinutes,
		b.Status, b.MeetingURL, b.Notes, b.CancelReason, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("exec context: %w", err)
	}
	return nil
}

func (a *Accessor) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, err := scanBooking(a.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	return &b, nil
}

func (a *Accessor) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, reason string, now time.Time) (bool, error) {
	query := `UPDATE bookings SET status = $1, cancel_reason = $2, updated_at = $3 WHERE id = $4 AND status = $5`
	res, err := a.db.ExecContext(ctx, query, to, reason, now, id, from)
	if err != nil {
		return false, fmt.Errorf("exec context: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (a *Accessor) SetMeetingURL(ctx context.Context, id uuid.UUID, url string, now time.Time) error {
	query := `UPDATE bookings SET meeting_url = $1, updated_at = $2 WHERE id = $3`
	if _, err := a.db.ExecContext(ctx, query, url, now, id); err != nil {
		return fmt.Errorf("exec context: %w", err)
	}
	return nil
}

// ListForSession returns the session's bookings, optionally narrowed to one
// status. An empty status returns all of them.
func (a *Accessor) ListForSession(ctx context.Context, sessionID uuid.UUID, status Status) ([]Booking, error) {
	return a.list(ctx, selectColumns+` WHERE session_id = $1 AND ($2::text = '' OR status = $2::text) ORDER BY scheduled_at`, sessionID, status)
}

func (a *Accessor) ListForUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	return a.list(ctx, selectColumns+` WHERE user_id = $1 ORDER BY scheduled_at`, userID)
}

func (a *Accessor) ListElapsedConfirmed(ctx context.Context, now time.Time) ([]Booking, error) {
	return a.list(ctx, selectColumns+` WHERE status = 'confirmed' AND scheduled_at + make_interval(mins => duration_minutes) <= $1 ORDER BY scheduled_at`, now)
}

func (a *Accessor) list(ctx context.Context, query string, args ...any) ([]Booking, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query context: %w", err)
	}
	defer rows.Close()

	bookings := []Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return bookings, nil
}

package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

func (a *Accessor) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	var s Slot

	query := `SELECT id, session_id, start_time, end_time, is_available, booked_by FROM slots WHERE id = $1`
	row := a.db.QueryRowContext(ctx, query, id)
	if err := row.Scan(&s.ID, &s.SessionID, &s.StartTime, &s.EndTime, &s.IsAvailable, &s.BookedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	return &s, nil
}

func (a *Accessor) ListAvailable(ctx context.Context, sessionID uuid.UUID, from time.Time) ([]Slot, error) {
	query := `SELECT id, session_id, start_time, end_time, is_available, booked_by FROM slots WHERE session_id = $1 AND is_available = TRUE AND start_time >= $2 ORDER BY start_time`
	rows, err := a.db.QueryContext(ctx, query, sessionID, from)
	if err != nil {
		return nil, fmt.Errorf("query context: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.ID, &s.SessionID, &s.StartTime, &s.EndTime, &s.IsAvailable, &s.BookedBy); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return slots, nil
}

// ReplaceWindow makes the available slots of a session inside [from, to] match
// the generated set. Booked slots are never touched, and generated slots that
// would overlap a booked slot are skipped. Inserts are keyed on the
// deterministic slot ID, so repeating the call is a no-op.
func (a *Accessor) ReplaceWindow(ctx context.Context, sessionID uuid.UUID, from, to time.Time, slots []Slot, now time.Time) (ReplaceResult, error) {
	var result ReplaceResult

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	bookedQuery := `SELECT id, start_time, end_time FROM slots WHERE session_id = $1 AND is_available = FALSE AND start_time < $3 AND end_time > $2`
	rows, err := tx.QueryContext(ctx, bookedQuery, sessionID, from, to)
	if err != nil {
		return result, fmt.Errorf("query booked: %w", err)
	}
	var booked []Slot
	for rows.Next() {
		var b Slot
		if err := rows.Scan(&b.ID, &b.StartTime, &b.EndTime); err != nil {
			rows.Close()
			return result, fmt.Errorf("scan booked: %w", err)
		}
		booked = append(booked, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("rows: %w", err)
	}

	keep, skipped := partition(slots, booked)
	result.Skipped = skipped

	keepIDs := make([]string, 0, len(keep))
	for _, s := range keep {
		keepIDs = append(keepIDs, s.ID.String())
	}

	deleteQuery := `DELETE FROM slots WHERE session_id = $1 AND is_available = TRUE AND start_time >= $2 AND start_time <= $3 AND NOT (id = ANY($4::uuid[]))`
	res, err := tx.ExecContext(ctx, deleteQuery, sessionID, from, to, pq.Array(keepIDs))
	if err != nil {
		return result, fmt.Errorf("delete stale: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return result, fmt.Errorf("rows affected: %w", err)
	}
	result.Removed = int(removed)

	insertQuery := `INSERT INTO slots (id, session_id, start_time, end_time, is_available, created_at, updated_at) VALUES ($1, $2, $3, $4, TRUE, $5, $5) ON CONFLICT (id) DO NOTHING`
	for _, s := range keep {
		res, err := tx.ExecContext(ctx, insertQuery, s.ID, sessionID, s.StartTime, s.EndTime, now)
		if err != nil {
			return result, fmt.Errorf("insert slot: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("rows affected: %w", err)
		}
		result.Inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

// DeleteAvailableAfter removes the session's unclaimed slots starting after
// the given instant. Booked slots stay.
func (a *Accessor) DeleteAvailableAfter(ctx context.Context, sessionID uuid.UUID, after time.Time) (int, error) {
	query := `DELETE FROM slots WHERE session_id = $1 AND is_available = TRUE AND start_time > $2`
	res, err := a.db.ExecContext(ctx, query, sessionID, after)
	if err != nil {
		return 0, fmt.Errorf("exec context: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// Claim marks the slot unavailable for bookingID. The availability check and
// the write are a single conditional UPDATE.
func (a *Accessor) Claim(ctx context.Context, id, bookingID uuid.UUID, now time.Time) error {
	query := `UPDATE slots SET is_available = FALSE, booked_by = $1, updated_at = $2 WHERE id = $3 AND is_available = TRUE`
	res, err := a.db.ExecContext(ctx, query, bookingID, now, id)
	if err != nil {
		return fmt.Errorf("exec context: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrSlotUnavailable
	}
	return nil
}

// Release frees a slot claimed by bookingID. Releasing a slot held by another
// booking, or one that is already free, is a no-op.
func (a *Accessor) Release(ctx context.Context, id, bookingID uuid.UUID, now time.Time) error {
	query := `UPDATE slots SET is_available = TRUE, booked_by = NULL, updated_at = $1 WHERE id = $2 AND booked_by = $3`
	if _, err := a.db.ExecContext(ctx, query, now, id, bookingID); err != nil {
		return fmt.Errorf("exec context: %w", err)
	}
	return nil
}

// partition drops generated slots that overlap a booked slot and returns the
// rest with the number dropped.
func partition(generated, booked []Slot) ([]Slot, int) {
	keep := make([]Slot, 0, len(generated))
	skipped := 0
	for _, g := range generated {
		clash := false
		for _, b := range booked {
			if g.ID == b.ID || g.Overlaps(b) {
				clash = true
				break
			}
		}
		if clash {
			skipped++
			continue
		}
		keep = append(keep, g)
	}
	return keep, skipped
}

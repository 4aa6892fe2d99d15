package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// schemaStatements are idempotent and applied in order. The partial unique
// index on bookings backs the slot claim: a slot can carry one live booking.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		community_id UUID NOT NULL,
		creator_id UUID NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_community ON sessions (community_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS availability_configs (
		session_id UUID PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
		rules JSONB NOT NULL DEFAULT '[]',
		auto_generate_slots BOOLEAN NOT NULL DEFAULT FALSE,
		advance_booking_days INTEGER NOT NULL CHECK (advance_booking_days BETWEEN 7 AND 90),
		timezone TEXT NOT NULL DEFAULT 'UTC',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS slots (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL CHECK (end_time > start_time),
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		booked_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (is_available = (booked_by IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_session_start ON slots (session_id, start_time)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id),
		slot_id UUID NOT NULL,
		user_id UUID NOT NULL,
		creator_id UUID NOT NULL,
		scheduled_at TIMESTAMPTZ NOT NULL,
		duration_minutes INTEGER NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'completed', 'cancelled')),
		meeting_url TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		cancel_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_live_slot ON bookings (slot_id) WHERE status <> 'cancelled'`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_session ON bookings (session_id, scheduled_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id, scheduled_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_confirmed ON bookings (scheduled_at) WHERE status = 'confirmed'`,
	`CREATE TABLE IF NOT EXISTS calendar_connections (
		creator_id UUID PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		token_type TEXT NOT NULL DEFAULT 'Bearer',
		expiry TIMESTAMPTZ,
		calendar_id TEXT NOT NULL DEFAULT 'primary',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate applies the schema in a single transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, s := range schemaStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

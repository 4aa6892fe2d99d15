package availability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const selectColumns = `SELECT session_id, rules, auto_generate_slots, advance_booking_days, timezone, updated_at FROM availability_configs`

type scanner interface {
	Scan(dest ...any) error
}

func scanConfig(row scanner) (Config, error) {
	var (
		cfg   Config
		rules RulesColumn
	)
	if err := row.Scan(&cfg.SessionID, &rules, &cfg.AutoGenerateSlots, &cfg.AdvanceBookingDays, &cfg.Timezone, &cfg.UpdatedAt); err != nil {
		return Config{}, err
	}
	cfg.RecurringAvailability = []Rule(rules)
	if cfg.RecurringAvailability == nil {
		cfg.RecurringAvailability = []Rule{}
	}
	return cfg, nil
}

func (a *Accessor) GetConfig(ctx context.Context, sessionID uuid.UUID) (*Config, error) {
	cfg, err := scanConfig(a.db.QueryRowContext(ctx, selectColumns+` WHERE session_id = $1`, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	return &cfg, nil
}

func (a *Accessor) SaveConfig(ctx context.Context, cfg Config, now time.Time) (*Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	cfg.UpdatedAt = now

	query := `INSERT INTO availability_configs (session_id, rules, auto_generate_slots, advance_booking_days, timezone, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			rules = EXCLUDED.rules,
			auto_generate_slots = EXCLUDED.auto_generate_slots,
			advance_booking_days = EXCLUDED.advance_booking_days,
			timezone = EXCLUDED.timezone,
			updated_at = EXCLUDED.updated_at`
	_, err := a.db.ExecContext(ctx, query, cfg.SessionID, RulesColumn(cfg.RecurringAvailability), cfg.AutoGenerateSlots, cfg.AdvanceBookingDays, cfg.Timezone, cfg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("exec context: %w", err)
	}

	return &cfg, nil
}

func (a *Accessor) ListAutoGenerate(ctx context.Context) ([]Config, error) {
	rows, err := a.db.QueryContext(ctx, selectColumns+` WHERE auto_generate_slots = TRUE ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("query context: %w", err)
	}
	defer rows.Close()

	var configs []Config
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return configs, nil
}

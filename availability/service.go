package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"session-booking/metrics"
	"session-booking/slot"
)

// Service ties the stored configs to slot regeneration.
type Service struct {
	configs Store
	slots   slot.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(configs Store, slots slot.Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		configs: configs,
		slots:   slots,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests and one-off CLI runs.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetAvailableHours returns the stored config or the defaults when none was
// saved yet.
func (s *Service) GetAvailableHours(ctx context.Context, sessionID uuid.UUID) (*Config, error) {
	cfg, err := s.configs.GetConfig(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	if cfg == nil {
		def := DefaultConfig(sessionID)
		return &def, nil
	}
	return cfg, nil
}

// SetAvailableHours validates and stores cfg. With AutoGenerateSlots set the
// whole booking horizon is regenerated right away.
func (s *Service) SetAvailableHours(ctx context.Context, cfg Config) (*Config, error) {
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.configs.SaveConfig(ctx, cfg, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}

	if saved.AutoGenerateSlots {
		now := s.now()
		if _, err := s.regenerate(ctx, *saved, now, saved.Horizon(now)); err != nil {
			return nil, fmt.Errorf("regenerate: %w", err)
		}
	}
	return saved, nil
}

// GetAvailableSlots lists the session's unclaimed slots that have not started
// and fall inside the booking horizon.
func (s *Service) GetAvailableSlots(ctx context.Context, sessionID uuid.UUID) ([]slot.Slot, error) {
	cfg, err := s.GetAvailableHours(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	slots, err := s.slots.ListAvailable(ctx, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("list available: %w", err)
	}

	horizon := cfg.Horizon(now)
	out := make([]slot.Slot, 0, len(slots))
	for _, sl := range slots {
		if sl.StartTime.After(horizon) {
			break
		}
		out = append(out, sl)
	}
	return out, nil
}

// Horizon is the latest instant a slot of the session may start at.
func (s *Service) Horizon(ctx context.Context, sessionID uuid.UUID, now time.Time) (time.Time, error) {
	cfg, err := s.GetAvailableHours(ctx, sessionID)
	if err != nil {
		return time.Time{}, err
	}
	return cfg.Horizon(now), nil
}

// GenerateSlots regenerates the session's slots for the dates start through
// end. The window is clamped to the booking horizon and never reaches into the
// past.
func (s *Service) GenerateSlots(ctx context.Context, sessionID uuid.UUID, start, end time.Time) (slot.ReplaceResult, error) {
	if start.After(end) {
		return slot.ReplaceResult{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	cfg, err := s.GetAvailableHours(ctx, sessionID)
	if err != nil {
		return slot.ReplaceResult{}, err
	}
	return s.regenerate(ctx, *cfg, start, end)
}

// RegenerateAll refreshes the full horizon of every config with
// AutoGenerateSlots set. A failing session does not stop the others.
func (s *Service) RegenerateAll(ctx context.Context) (int, error) {
	configs, err := s.configs.ListAutoGenerate(ctx)
	if err != nil {
		return 0, fmt.Errorf("list auto generate: %w", err)
	}

	var errs []error
	done := 0
	for _, cfg := range configs {
		now := s.now()
		result, err := s.regenerate(ctx, cfg, now, cfg.Horizon(now))
		if err != nil {
			s.logger.Error("slot regeneration failed", "session_id", cfg.SessionID, "error", err)
			errs = append(errs, fmt.Errorf("session %s: %w", cfg.SessionID, err))
			continue
		}
		s.logger.Debug("slots regenerated", "session_id", cfg.SessionID, "inserted", result.Inserted, "removed", result.Removed, "skipped", result.Skipped)
		done++
	}
	return done, errors.Join(errs...)
}

func (s *Service) regenerate(ctx context.Context, cfg Config, start, end time.Time) (slot.ReplaceResult, error) {
	loc, err := cfg.Location()
	if err != nil {
		return slot.ReplaceResult{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	now := s.now().In(loc)

	from := start.In(loc)
	if from.Before(now) {
		from = now
	}
	to := endOfDay(end.In(loc))
	horizon := cfg.Horizon(now)
	if to.After(horizon) {
		to = horizon
	}

	for i, rule := range cfg.RecurringAvailability {
		if err := rule.Validate(); err != nil {
			return slot.ReplaceResult{}, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	// A shortened horizon leaves unclaimed slots beyond it.
	pruned, err := s.slots.DeleteAvailableAfter(ctx, cfg.SessionID, horizon.UTC())
	if err != nil {
		return slot.ReplaceResult{}, fmt.Errorf("delete beyond horizon: %w", err)
	}
	if from.After(to) {
		s.metrics.SlotsRegenerated(0, pruned, 0)
		return slot.ReplaceResult{Removed: pruned}, nil
	}

	generated, err := Generate(cfg, from, to)
	if err != nil {
		return slot.ReplaceResult{}, err
	}

	candidates := make([]slot.Slot, 0, len(generated))
	for _, g := range generated {
		if g.StartTime.Before(from) || g.StartTime.After(to) {
			continue
		}
		candidates = append(candidates, g)
	}

	result, err := s.slots.ReplaceWindow(ctx, cfg.SessionID, from.UTC(), to.UTC(), candidates, s.now().UTC())
	if err != nil {
		return slot.ReplaceResult{}, fmt.Errorf("replace window: %w", err)
	}
	result.Removed += pruned
	s.metrics.SlotsRegenerated(result.Inserted, result.Removed, result.Skipped)
	return result, nil
}

func endOfDay(t time.Time) time.Time {
	return midnight(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

package availability

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidWindow = errors.New("availability: invalid window")
	ErrInvalidRule   = errors.New("availability: invalid rule")
	ErrInvalidConfig = errors.New("availability: invalid config")
)

const (
	MinAdvanceBookingDays     = 7
	MaxAdvanceBookingDays     = 90
	DefaultAdvanceBookingDays = 30
	DefaultTimezone           = "UTC"
)

// Weekday is 0 (Sunday) through 6 (Saturday), matching time.Weekday.
type Weekday int

func (d Weekday) Valid() bool {
	return d >= Weekday(time.Sunday) && d <= Weekday(time.Saturday)
}

func (d Weekday) Time() time.Weekday {
	return time.Weekday(d)
}

// Rule is one weekly window. StartTime and EndTime are local HH:MM values in
// the owning Config's timezone.
type Rule struct {
	DayOfWeek    Weekday `json:"dayOfWeek"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	SlotDuration int     `json:"slotDuration"`
	IsActive     bool    `json:"isActive"`
}

func (r Rule) Validate() error {
	if !r.DayOfWeek.Valid() {
		return fmt.Errorf("%w: day of week %d out of range", ErrInvalidRule, r.DayOfWeek)
	}
	start, err := parseClock(r.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start time: %v", ErrInvalidRule, err)
	}
	end, err := parseClock(r.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end time: %v", ErrInvalidRule, err)
	}
	if start >= end {
		return fmt.Errorf("%w: start time %s is not before end time %s", ErrInvalidRule, r.StartTime, r.EndTime)
	}
	if r.SlotDuration <= 0 {
		return fmt.Errorf("%w: slot duration must be greater than 0", ErrInvalidRule)
	}
	return nil
}

// bounds returns the rule window as minutes since local midnight. The rule
// must already be valid.
func (r Rule) bounds() (int, int) {
	start, _ := parseClock(r.StartTime)
	end, _ := parseClock(r.EndTime)
	return start, end
}

type RulesColumn []Rule

// Value implements driver.Valuer for INSERT/UPDATE.
func (c RulesColumn) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for SELECT.
func (c *RulesColumn) Scan(value any) error {
	if value == nil {
		*c = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("not a []byte: %T", value)
	}
}

// Config is the availability aggregate of one session.
type Config struct {
	SessionID             uuid.UUID `json:"sessionId"`
	RecurringAvailability []Rule    `json:"recurringAvailability"`
	AutoGenerateSlots     bool      `json:"autoGenerateSlots"`
	AdvanceBookingDays    int       `json:"advanceBookingDays"`
	Timezone              string    `json:"timezone"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// DefaultConfig is what a session reports before its creator saves anything.
func DefaultConfig(sessionID uuid.UUID) Config {
	return Config{
		SessionID:             sessionID,
		RecurringAvailability: []Rule{},
		AdvanceBookingDays:    DefaultAdvanceBookingDays,
		Timezone:              DefaultTimezone,
	}
}

func (c *Config) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("%w: session ID is required", ErrInvalidConfig)
	}
	if c.AdvanceBookingDays < MinAdvanceBookingDays || c.AdvanceBookingDays > MaxAdvanceBookingDays {
		return fmt.Errorf("%w: advance booking days must be between %d and %d", ErrInvalidConfig, MinAdvanceBookingDays, MaxAdvanceBookingDays)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for i, rule := range c.RecurringAvailability {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Horizon is the latest instant a slot may start at, relative to now.
func (c *Config) Horizon(now time.Time) time.Time {
	return now.AddDate(0, 0, c.AdvanceBookingDays)
}

// ParseDate reads a YYYY-MM-DD date as local midnight in the config timezone.
func (c *Config) ParseDate(value string) (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidWindow, value)
	}
	return t, nil
}

func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%q is not HH:MM", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

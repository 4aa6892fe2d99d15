package availability

import (
	"fmt"
	"sort"
	"time"

	"session-booking/slot"
)

// Generate expands the active rules of cfg into slots for every calendar date
// from start to end inclusive, evaluated in the config's timezone. Each rule
// window is cut into consecutive SlotDuration pieces and a trailing piece
// shorter than SlotDuration is dropped. Inactive rules are skipped but still
// validated. The result is ordered by start time.
func Generate(cfg Config, start, end time.Time) ([]slot.Slot, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	for i, rule := range cfg.RecurringAvailability {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	first := midnight(start.In(loc))
	last := midnight(end.In(loc))

	seen := make(map[string]struct{})
	var slots []slot.Slot
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		for _, rule := range cfg.RecurringAvailability {
			if !rule.IsActive || rule.DayOfWeek.Time() != day.Weekday() {
				continue
			}
			from, to := rule.bounds()
			for m := from; m+rule.SlotDuration <= to; m += rule.SlotDuration {
				y, mo, d := day.Date()
				slotStart := time.Date(y, mo, d, 0, m, 0, 0, loc)
				slotEnd := slotStart.Add(time.Duration(rule.SlotDuration) * time.Minute)
				// Wall-clock times skipped by a DST transition are normalised
				// by time.Date; such slots fall outside the rule window.
				if wallMinutes(day, slotStart) != m || wallMinutes(day, slotEnd) > to {
					continue
				}
				s := slot.New(cfg.SessionID, slotStart, slotEnd)
				if _, dup := seen[s.ID.String()]; dup {
					continue
				}
				seen[s.ID.String()] = struct{}{}
				slots = append(slots, s)
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// wallMinutes is t's local clock reading in minutes past the midnight of day.
func wallMinutes(day, t time.Time) int {
	days := int(midnight(t).Sub(day).Hours()+12) / 24
	return days*24*60 + t.Hour()*60 + t.Minute()
}

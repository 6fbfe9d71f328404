package aggregate

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Window is the date radius around a reference time that keeps a fixture
// in scope. The radius is configuration, not a constant; call sites have
// historically wanted anything from two weeks to a year.
type Window struct {
	Days int
}

// Contains reports whether the fixture date falls inside
// [now - Days, now + Days], inclusive. An absent or unparseable date is
// out of scope, never an error.
func (w Window) Contains(date string, now time.Time) bool {
	parsed, ok := parseFixtureDate(date)
	if !ok {
		return false
	}

	from, to := w.Bounds(now)
	return !parsed.Before(from) && !parsed.After(to)
}

// Bounds returns the inclusive window edges, truncated to whole days.
func (w Window) Bounds(now time.Time) (from, to time.Time) {
	day := now.UTC().Truncate(24 * time.Hour)
	radius := time.Duration(w.Days) * 24 * time.Hour
	return day.Add(-radius), day.Add(radius)
}

// Range formats the window edges as the date-range boundaries reported in
// the aggregate summary.
func (w Window) Range(now time.Time) DateRange {
	from, to := w.Bounds(now)
	return DateRange{
		From: from.Format(dateLayout),
		To:   to.Format(dateLayout),
	}
}

func parseFixtureDate(date string) (time.Time, bool) {
	value := strings.TrimSpace(date)
	if value == "" {
		return time.Time{}, false
	}

	layouts := []string{dateLayout, time.RFC3339}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.UTC().Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}

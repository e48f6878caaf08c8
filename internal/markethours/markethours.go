// Package markethours maps instants to the calendar trading day used by the
// daily loss breaker. The day boundary is local midnight in a configured zone.
package markethours

import (
	"fmt"
	"time"
)

// DayLayout is the format of a day key.
const DayLayout = "2006-01-02"

// LoadLocation resolves a TIMEZONE value. Empty means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("markethours: load location %q: %w", name, err)
	}
	return loc, nil
}

// DayKey returns the calendar day of t in loc, e.g. "2024-03-09".
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayLayout)
}

// NextMidnight returns the start of the day after t in loc.
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, loc)
}

// TimeUntilRollover returns the duration until the next day boundary.
func TimeUntilRollover(t time.Time, loc *time.Location) time.Duration {
	return NextMidnight(t, loc).Sub(t)
}

// StatusString returns a human-readable description of the current day window.
func StatusString(t time.Time, loc *time.Location) string {
	return fmt.Sprintf("Trading day %s, resets in %s", DayKey(t, loc), fmtDur(TimeUntilRollover(t, loc)))
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

package util

import (
	"time"
)

// LastWeekday returns the calendar date of t if it falls on Monday-Friday,
// otherwise the preceding Friday. The result is midnight UTC.
func LastWeekday(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	}
	return d
}

// LastFinishedSession returns the most recent weekday whose US session has
// closed at now. Sessions close at 16:00 America/New_York; loc should be that
// zone. Holidays are not accounted for.
func LastFinishedSession(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	closeAt := time.Date(local.Year(), local.Month(), local.Day(), 16, 0, 0, 0, loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	if local.Before(closeAt) {
		day = day.AddDate(0, 0, -1)
	}
	return LastWeekday(day)
}

package utils

import (
	"time"
)

const DateLayout = "2006-01-02"

// DayKey returns the calendar date of t as YYYY-MM-DD, read in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// WeekStart returns midnight of the ISO week's Monday containing t.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	// Sunday is the last day of an ISO week.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekKey returns the ISO week start of t as YYYY-MM-DD.
func WeekKey(t time.Time) string {
	return DayKey(WeekStart(t))
}

// ParseDate parses a YYYY-MM-DD calendar date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

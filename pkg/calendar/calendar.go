// Package calendar converts instants into household calendar days.
package calendar

import "time"

// DayStart returns the UTC instant at which t's calendar day begins in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).UTC()
}

// Date returns t's calendar day in loc as midnight UTC, the form stored in
// DATE columns.
func Date(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from the stored date to today.
func DaysBetween(date, today time.Time) int {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// Key formats a stored date for composite keys.
func Key(date time.Time) string {
	return date.UTC().Format(time.DateOnly)
}

// ParseDate reads a YYYY-MM-DD value as a stored date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, value, time.UTC)
}

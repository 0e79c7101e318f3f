package rules

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the only accepted wire format for calendar dates
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a YYYY-MM-DD string into a civil date at UTC midnight
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q is not in YYYY-MM-DD format", ErrInvalidDate, s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders a civil date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// CivilDate returns the calendar day of instant in loc, as UTC midnight.
// Deadline arithmetic never depends on the time of day.
func CivilDate(instant time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := instant.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b, both civil dates
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// DaysUntil parses date and returns its distance from today
func DaysUntil(today time.Time, date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return DaysBetween(today, t), nil
}

// IsWeekend reports whether t falls on Saturday or Sunday
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Package timeutil provides calendar-date utilities for streak, login-bonus
// and quest-board comparisons. Streak logic must never compare raw timestamps:
// everything that is "per day" converts to a CalendarDate at the boundary.
// All dates are anchored to UTC. No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// FormatDate is the canonical date format (YYYY-MM-DD).
const FormatDate = "2006-01-02"

// CalendarDate is a timezone-free calendar day. The zero value means "no date"
// (a learner who was never active). CalendarDate is comparable with ==.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a CalendarDate from its components.
func NewDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{Year: year, Month: month, Day: day}
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) CalendarDate {
	u := t.UTC()
	return CalendarDate{Year: u.Year(), Month: u.Month(), Day: u.Day()}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (CalendarDate, error) {
	t, err := time.Parse(FormatDate, value)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("timeutil: parse date %q: %w", value, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether the date is unset.
func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// Time returns midnight UTC of the calendar day.
func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days later (n may be negative).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d CalendarDate) Before(other CalendarDate) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly later than other.
func (d CalendarDate) After(other CalendarDate) bool {
	return d.Time().After(other.Time())
}

// DaysUntil returns the signed number of days from d to other.
// Positive when other is in the future relative to d.
func (d CalendarDate) DaysUntil(other CalendarDate) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

// WeekStart returns the Monday of the week containing d.
func (d CalendarDate) WeekStart() CalendarDate {
	weekday := int(d.Time().Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return d.AddDays(-(weekday - 1))
}

// String formats the date as YYYY-MM-DD. The zero value formats as "".
func (d CalendarDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(FormatDate)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string, or null when unset.
func (d CalendarDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string or null.
func (d *CalendarDate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = CalendarDate{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timeutil: invalid date literal %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clock supplies the current time. Engines never call time.Now directly so
// tests can pin the calendar.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock is a Clock pinned to a settable instant, for tests.
type FixedClock struct {
	Current time.Time
}

// NewFixedClock returns a FixedClock starting at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{Current: t}
}

// Now returns the pinned instant.
func (c *FixedClock) Now() time.Time {
	return c.Current
}

// Advance moves the pinned instant forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}

// AdvanceDays moves the pinned instant forward by whole days.
func (c *FixedClock) AdvanceDays(n int) {
	c.Current = c.Current.AddDate(0, 0, n)
}

// Today returns the current calendar day of the clock.
func Today(c Clock) CalendarDate {
	return DateOf(c.Now())
}

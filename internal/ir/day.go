package ir

import (
	"fmt"
	"time"
)

// DayLayout is the wire format for Day values.
const DayLayout = "2006-01-02"

// Day is a calendar date in ISO form. Lexical order equals calendar order.
type Day string

// ParseDay validates s and returns it as a Day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse day %q: %w", s, err)
	}
	return Day(t.Format(DayLayout)), nil
}

// MustDay is like ParseDay but panics on error.
// Use only in tests or with literal dates.
func MustDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DayOf returns the UTC calendar day of t.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(DayLayout))
}

// Time returns midnight UTC of d.
func (d Day) Time() (time.Time, error) {
	return time.Parse(DayLayout, string(d))
}

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) (Day, error) {
	t, err := d.Time()
	if err != nil {
		return "", err
	}
	return Day(t.AddDate(0, 0, n).Format(DayLayout)), nil
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool {
	return d < other
}

// DayRange is an inclusive range of days.
type DayRange struct {
	Start Day `json:"start" yaml:"start"`
	End   Day `json:"end" yaml:"end"`
}

// Validate checks both bounds parse and Start <= End.
func (r DayRange) Validate() error {
	if _, err := r.Start.Time(); err != nil {
		return NewValidationError("start", fmt.Sprintf("invalid start day %q", r.Start))
	}
	if _, err := r.End.Time(); err != nil {
		return NewValidationError("end", fmt.Sprintf("invalid end day %q", r.End))
	}
	if r.End.Before(r.Start) {
		return NewValidationError("end", fmt.Sprintf("end %s is before start %s", r.End, r.Start))
	}
	return nil
}

// Contains reports whether d lies within r.
func (r DayRange) Contains(d Day) bool {
	return !d.Before(r.Start) && !r.End.Before(d)
}

// Days enumerates every day of r in order.
func (r DayRange) Days() ([]Day, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	start, _ := r.Start.Time()
	end, _ := r.End.Time()

	var days []Day
	for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
		days = append(days, Day(t.Format(DayLayout)))
	}
	return days, nil
}

// String renders r as "start..end".
func (r DayRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start, r.End)
}

package util

import (
	"fmt"
	"time"
)

func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ParseDate reads YYYY-MM-DD as midnight UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}

// DateKey truncates t to its calendar day in UTC
func DateKey(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func DateLte(t1, t2 time.Time) bool {
	return !DateKey(t1).After(DateKey(t2))
}

func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDays lists every Monday to Friday between start and end, both
// inclusive. Exchange holidays are not removed; those days simply have no
// close and get skipped.
func BusinessDays(start, end time.Time) []time.Time {
	out := []time.Time{}
	for d := DateKey(start); DateLte(d, end); d = d.AddDate(0, 0, 1) {
		if IsWeekday(d) {
			out = append(out, d)
		}
	}
	return out
}

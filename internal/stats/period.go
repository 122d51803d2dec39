// Package stats computes reading statistics over the in-memory library.
// Everything here is pure: callers pass the books and clock in.
package stats

import (
	"time"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

// Period is a half-open time window. Start is inclusive, End exclusive.
// A zero Start means open-ended history.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthPeriod returns the window covering one calendar month in local time.
func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// YearPeriod returns the window covering one calendar year in local time.
func YearPeriod(year int) Period {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.Local)
	return Period{Start: start, End: start.AddDate(1, 0, 0)}
}

// AllTime returns an open-ended window up to the far future.
func AllTime() Period {
	return Period{End: time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Contains reports whether t falls inside the window.
func (p Period) Contains(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	return t.Before(p.End)
}

// ContainsDay reports whether a reading log date falls inside the window.
// Malformed dates are treated as outside.
func (p Period) ContainsDay(date string) bool {
	day, err := time.ParseInLocation(domain.DayLayout, date, time.Local)
	if err != nil {
		return false
	}
	return p.Contains(day)
}

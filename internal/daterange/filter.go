// Package daterange restricts record collections to a named relative date
// window (today, this week, this month) evaluated in the caller's timezone.
package daterange

import (
	"fmt"
	"strings"
	"time"

	"github.com/ignite/connect-metrics/internal/datanorm"
)

// Filter names a relative window.
type Filter string

const (
	All   Filter = "all"
	Today Filter = "today"
	Week  Filter = "week"
	Month Filter = "month"
)

// Parse accepts "", "all", "today", "week" or "month". The empty string
// means All.
func Parse(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", All:
		return All, nil
	case Today, Week, Month:
		return f, nil
	default:
		return "", fmt.Errorf("unknown date filter %q", s)
	}
}

// WeekStart is the first day of a "week" window.
var WeekStart = time.Sunday

// Window returns the half-open interval [start, end) for f around now, in
// now's location. ok is false for All.
func Window(f Filter, now time.Time) (start, end time.Time, ok bool) {
	y, m, d := now.Date()
	loc := now.Location()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end = today.AddDate(0, 0, 1)

	switch f {
	case Today:
		return today, end, true
	case Week:
		offset := (int(today.Weekday()) - int(WeekStart) + 7) % 7
		return today.AddDate(0, 0, -offset), end, true
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), end, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Apply keeps the rows whose date (as returned by dateOf) falls inside the
// window for f. Dates are parsed in now's location; rows with empty or
// unparsable dates are dropped. All returns rows unchanged.
func Apply[T any](rows []T, f Filter, now time.Time, dateOf func(T) string) []T {
	start, end, ok := Window(f, now)
	if !ok || len(rows) == 0 {
		return rows
	}

	out := make([]T, 0, len(rows))
	for _, r := range rows {
		d, ok := datanorm.ParseDate(dateOf(r), now.Location())
		if !ok {
			continue
		}
		if !d.Before(start) && d.Before(end) {
			out = append(out, r)
		}
	}
	return out
}

// Calls filters Kixie records on their call date.
func Calls(rows []datanorm.CallRecord, f Filter, now time.Time) []datanorm.CallRecord {
	return Apply(rows, f, now, func(r datanorm.CallRecord) string { return r.Date })
}

// Contacts filters Powerlist records on their date-added column.
func Contacts(rows []datanorm.ContactRecord, f Filter, now time.Time) []datanorm.ContactRecord {
	return Apply(rows, f, now, func(r datanorm.ContactRecord) string { return r.DateAdded })
}

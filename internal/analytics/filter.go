// Package analytics derives dashboard statistics from owner collections.
//
// Every function is pure: callers pass the reference month explicitly and
// the result depends only on the arguments. Month boundaries are computed
// in the location of the reference time.
package analytics

import (
	"time"

	"freelancedesk/internal/core"
)

// MonthStart returns midnight of the first day of ref's month.
func MonthStart(ref time.Time) time.Time {
	y, m, _ := ref.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, ref.Location())
}

// MonthBounds returns the first and last instant of ref's calendar month.
func MonthBounds(ref time.Time) (start, end time.Time) {
	start = MonthStart(ref)
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// YearBounds returns the first and last instant of ref's calendar year.
func YearBounds(ref time.Time) (start, end time.Time) {
	start = time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location())
	end = start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	return start, end
}

// InRange reports start <= t <= end. Zero times are never in range.
func InRange(t, start, end time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(start) && !t.After(end)
}

// FilterByRange keeps the records whose timestamp, as returned by at, falls
// within [start, end]. Input order is preserved.
func FilterByRange[T any](records []T, start, end time.Time, at func(T) time.Time) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if InRange(at(r), start, end) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByMonth keeps the records dated within ref's calendar month.
func FilterByMonth[T any](records []T, ref time.Time, at func(T) time.Time) []T {
	start, end := MonthBounds(ref)
	return FilterByRange(records, start, end, at)
}

// Timestamp accessors for FilterByMonth and friends.

func PaymentDate(p core.Payment) time.Time { return p.Date.Time }
func ProjectCreated(p core.Project) time.Time { return p.CreatedAt }
func ProjectCompleted(p core.Project) time.Time { return p.CompletedDate.Time }
func ClientCreated(c core.Client) time.Time { return c.CreatedAt }
func TeamPaymentDate(p core.TeamMemberPayment) time.Time { return p.Date.Time }
func InvestmentDate(i core.Investment) time.Time { return i.Date.Time }

package analytics

import (
	"time"

	"freelancedesk/internal/core"
)

// StatusTally counts projects by status.
type StatusTally struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	OnHold    int `json:"onHold"`
	Cancelled int `json:"cancelled"`
	Total     int `json:"total"`
}

// Scope restricts StatusCounts to projects created within [Start, End].
// The zero Scope counts every project.
type Scope struct {
	Start time.Time
	End   time.Time
}

// MonthScope scopes to projects created in ref's month.
func MonthScope(ref time.Time) Scope {
	start, end := MonthBounds(ref)
	return Scope{Start: start, End: end}
}

// YearScope scopes to projects created in ref's year.
func YearScope(ref time.Time) Scope {
	start, end := YearBounds(ref)
	return Scope{Start: start, End: end}
}

func (s Scope) all() bool {
	return s.Start.IsZero() && s.End.IsZero()
}

// StatusCounts tallies the creation cohort of the scope by current status.
// It answers "how did the projects started this month end up", not "what is
// active right now".
func StatusCounts(projects []core.Project, scope Scope) StatusTally {
	var tally StatusTally
	for _, p := range projects {
		if !scope.all() && !InRange(p.CreatedAt, scope.Start, scope.End) {
			continue
		}
		switch p.Status {
		case core.StatusActive:
			tally.Active++
		case core.StatusCompleted:
			tally.Completed++
		case core.StatusOnHold:
			tally.OnHold++
		case core.StatusCancelled:
			tally.Cancelled++
		}
		tally.Total++
	}
	return tally
}

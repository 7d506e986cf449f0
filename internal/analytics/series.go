package analytics

import (
	"time"

	"freelancedesk/internal/core"
)

// SeriesPoint is one month bucket of the dashboard chart.
type SeriesPoint struct {
	Label             string     `json:"label"`
	Month             time.Time  `json:"month"`
	PaymentsTotal     core.Money `json:"paymentsTotal"`
	ProjectsCreated   int        `json:"projectsCreated"`
	ProjectsCompleted int        `json:"projectsCompleted"`
}

// SeriesLabelLayout renders bucket labels such as "Mar 2024".
const SeriesLabelLayout = "Jan 2006"

// MonthlySeries builds numMonths consecutive buckets ending at endMonth,
// oldest first. Projects count as created by CreatedAt and as completed by
// CompletedDate, so a backdated completion lands in its own month.
func MonthlySeries(payments []core.Payment, projects []core.Project, numMonths int, endMonth time.Time) []SeriesPoint {
	if numMonths <= 0 {
		return []SeriesPoint{}
	}
	last := MonthStart(endMonth)
	points := make([]SeriesPoint, numMonths)
	for i := range points {
		month := last.AddDate(0, i-(numMonths-1), 0)
		start, end := MonthBounds(month)

		pt := SeriesPoint{Label: month.Format(SeriesLabelLayout), Month: month}
		for _, p := range payments {
			if InRange(p.Date.Time, start, end) {
				pt.PaymentsTotal = pt.PaymentsTotal.Add(p.Amount)
			}
		}
		for _, p := range projects {
			if InRange(p.CreatedAt, start, end) {
				pt.ProjectsCreated++
			}
			if InRange(p.CompletedDate.Time, start, end) {
				pt.ProjectsCompleted++
			}
		}
		points[i] = pt
	}
	return points
}

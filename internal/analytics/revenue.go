package analytics

import (
	"time"

	"freelancedesk/internal/core"
)

// SumPayments totals payment amounts.
func SumPayments(payments []core.Payment) core.Money {
	var total core.Money
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// MonthlyRevenue sums the payments dated within month.
func MonthlyRevenue(payments []core.Payment, month time.Time) core.Money {
	return SumPayments(FilterByMonth(payments, month, PaymentDate))
}

// YearlyRevenue sums the payments dated within ref's calendar year.
func YearlyRevenue(payments []core.Payment, ref time.Time) core.Money {
	start, end := YearBounds(ref)
	return SumPayments(FilterByRange(payments, start, end, PaymentDate))
}

// GrowthPercent is the percentage change from previous to current.
// Growth from zero is reported as 100 (or 0 when both are zero) so it never
// renders as infinity.
func GrowthPercent(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return (current - previous) / previous * 100
}

// RevenueGrowth compares month's revenue with the month before it.
func RevenueGrowth(payments []core.Payment, month time.Time) (current, previous core.Money, growth float64) {
	current = MonthlyRevenue(payments, month)
	previous = MonthlyRevenue(payments, MonthStart(month).AddDate(0, -1, 0))
	return current, previous, GrowthPercent(current.Major(), previous.Major())
}

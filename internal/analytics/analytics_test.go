package analytics

import (
	"math"
	"testing"
	"time"

	"freelancedesk/internal/core"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 15, 12, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func pay(project string, cents int64, y int, m time.Month, d int) core.Payment {
	return core.Payment{ProjectID: project, Amount: core.Money{Cents: cents}, Date: core.NewDate(y, int(m), d)}
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(month(2024, time.February))
	if !start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	if end.Day() != 29 || end.Hour() != 23 || end.Month() != time.February {
		t.Fatalf("end = %v", end)
	}
}

func TestFilterByMonth(t *testing.T) {
	payments := []core.Payment{
		pay("p", 1, 2024, time.February, 29),
		pay("p", 2, 2024, time.March, 1),
		pay("p", 3, 2024, time.March, 31),
		pay("p", 4, 2024, time.April, 1),
		{ProjectID: "p", Amount: core.Money{Cents: 5}},
	}
	got := FilterByMonth(payments, month(2024, time.March), PaymentDate)
	if len(got) != 2 || got[0].Amount.Cents != 2 || got[1].Amount.Cents != 3 {
		t.Fatalf("FilterByMonth() = %+v", got)
	}

	if out := FilterByMonth([]core.Payment{}, month(2024, time.March), PaymentDate); len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
}

func TestMonthlyRevenue(t *testing.T) {
	payments := []core.Payment{
		pay("p", 100000, 2024, time.March, 5),
		pay("p", 200000, 2024, time.March, 20),
		pay("p", 50000, 2024, time.April, 1),
	}
	if got := MonthlyRevenue(payments, month(2024, time.March)); got.Cents != 300000 {
		t.Fatalf("MonthlyRevenue() = %d, want 300000", got.Cents)
	}
	if got := YearlyRevenue(payments, month(2024, time.June)); got.Cents != 350000 {
		t.Fatalf("YearlyRevenue() = %d, want 350000", got.Cents)
	}
}

func TestGrowthPercent(t *testing.T) {
	tests := []struct {
		current, previous, want float64
	}{
		{0, 0, 0},
		{500, 0, 100},
		{0.01, 0, 100},
		{150, 100, 50},
		{50, 100, -50},
		{100, 100, 0},
	}
	for _, tt := range tests {
		if got := GrowthPercent(tt.current, tt.previous); got != tt.want {
			t.Errorf("GrowthPercent(%v, %v) = %v, want %v", tt.current, tt.previous, got, tt.want)
		}
	}
}

func TestRevenueGrowthAcrossYear(t *testing.T) {
	payments := []core.Payment{
		pay("p", 100, 2023, time.December, 31),
		pay("p", 300, 2024, time.January, 2),
	}
	cur, prev, growth := RevenueGrowth(payments, month(2024, time.January))
	if cur.Cents != 300 || prev.Cents != 100 || growth != 200 {
		t.Fatalf("RevenueGrowth() = %d, %d, %v", cur.Cents, prev.Cents, growth)
	}
}

func TestMonthlySeries(t *testing.T) {
	payments := []core.Payment{
		pay("p", 1000, 2024, time.January, 10),
		pay("p", 2000, 2024, time.March, 10),
		pay("p", 4000, 2023, time.December, 31),
	}
	projects := []core.Project{
		{ID: "a", Status: core.StatusCompleted, CreatedAt: at(2024, time.January, 3), CompletedDate: core.NewDate(2024, 3, 1)},
		{ID: "b", Status: core.StatusActive, CreatedAt: at(2024, time.March, 3)},
		// backdated completion counts in its own month
		{ID: "c", Status: core.StatusCompleted, CreatedAt: at(2024, time.March, 4), CompletedDate: core.NewDate(2024, 2, 20)},
	}

	series := MonthlySeries(payments, projects, 3, month(2024, time.March))
	if len(series) != 3 {
		t.Fatalf("len = %d, want 3", len(series))
	}
	wantLabels := []string{"Jan 2024", "Feb 2024", "Mar 2024"}
	for i, pt := range series {
		if pt.Label != wantLabels[i] {
			t.Errorf("series[%d].Label = %q, want %q", i, pt.Label, wantLabels[i])
		}
	}
	if series[0].PaymentsTotal.Cents != 1000 || series[0].ProjectsCreated != 1 || series[0].ProjectsCompleted != 0 {
		t.Errorf("jan = %+v", series[0])
	}
	if series[1].PaymentsTotal.Cents != 0 || series[1].ProjectsCreated != 0 || series[1].ProjectsCompleted != 1 {
		t.Errorf("feb = %+v", series[1])
	}
	if series[2].PaymentsTotal.Cents != 2000 || series[2].ProjectsCreated != 2 || series[2].ProjectsCompleted != 1 {
		t.Errorf("mar = %+v", series[2])
	}

	for _, n := range []int{1, 6, 12, 24} {
		s := MonthlySeries(payments, projects, n, month(2024, time.March))
		if len(s) != n {
			t.Fatalf("MonthlySeries(n=%d) returned %d points", n, len(s))
		}
		for i := 1; i < len(s); i++ {
			if !s[i].Month.After(s[i-1].Month) {
				t.Fatalf("series not chronological at %d", i)
			}
		}
	}
	if s := MonthlySeries(payments, projects, 0, month(2024, time.March)); len(s) != 0 {
		t.Fatalf("expected empty series, got %d", len(s))
	}
}

func TestStatusCounts(t *testing.T) {
	projects := []core.Project{
		{Status: core.StatusActive, CreatedAt: at(2024, time.May, 10)},
		{Status: core.StatusCompleted, CreatedAt: at(2024, time.May, 15)},
		{Status: core.StatusActive, CreatedAt: at(2024, time.June, 1)},
		{Status: core.StatusOnHold, CreatedAt: at(2023, time.November, 1)},
		{Status: core.StatusCancelled, CreatedAt: at(2024, time.January, 9)},
	}

	tests := []struct {
		name  string
		scope Scope
		want  StatusTally
	}{
		{"may cohort", MonthScope(month(2024, time.May)), StatusTally{Active: 1, Completed: 1, Total: 2}},
		{"2024 cohort", YearScope(month(2024, time.May)), StatusTally{Active: 2, Completed: 1, Cancelled: 1, Total: 4}},
		{"all time", Scope{}, StatusTally{Active: 2, Completed: 1, OnHold: 1, Cancelled: 1, Total: 5}},
		{"empty month", MonthScope(month(2024, time.July)), StatusTally{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCounts(projects, tt.scope); got != tt.want {
				t.Fatalf("StatusCounts() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func rankingFixture() ([]core.Client, []core.Project) {
	clients := []core.Client{{ID: "A", Name: "Acme"}, {ID: "B", Name: "Bolt"}, {ID: "C", Name: "Cove"}, {ID: "D", Name: "Dune"}}
	projects := []core.Project{
		{ID: "pa", ClientID: "A"},
		{ID: "pb1", ClientID: "B"},
		{ID: "pb2", ClientID: "B"},
		{ID: "pc", ClientID: "C"},
		{ID: "pd", ClientID: "D"},
	}
	return clients, projects
}

func TestTopClientsByRevenue(t *testing.T) {
	clients, projects := rankingFixture()
	payments := []core.Payment{
		pay("pa", 30000, 2024, time.March, 3),
		pay("pb1", 50000, 2024, time.March, 4),
		pay("pb2", 20000, 2024, time.March, 28),
		pay("pc", 99999, 2024, time.April, 1),
		pay("missing", 10000, 2024, time.March, 2),
	}

	got := TopClientsByRevenue(clients, projects, payments, month(2024, time.March), 5)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].Client.ID != "B" || got[0].Revenue.Cents != 70000 || got[0].PercentOfTotal != 70 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Client.ID != "A" || got[1].Revenue.Cents != 30000 || got[1].PercentOfTotal != 30 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestTopClientsByRevenueTruncatesAndRescales(t *testing.T) {
	clients, projects := rankingFixture()
	payments := []core.Payment{
		pay("pa", 100, 2024, time.March, 3),
		pay("pb1", 300, 2024, time.March, 3),
		pay("pc", 300, 2024, time.March, 3),
		pay("pd", 100, 2024, time.March, 3),
	}
	got := TopClientsByRevenue(clients, projects, payments, month(2024, time.March), 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// equal revenues keep input order
	if got[0].Client.ID != "B" || got[1].Client.ID != "C" || got[2].Client.ID != "A" {
		t.Fatalf("order = %s %s %s", got[0].Client.ID, got[1].Client.ID, got[2].Client.ID)
	}
	var sum float64
	for _, r := range got {
		sum += r.PercentOfTotal
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("percentages sum to %v", sum)
	}

	if got := TopClientsByRevenue(clients, projects, nil, month(2024, time.March), 5); len(got) != 0 {
		t.Fatalf("expected no ranked clients, got %+v", got)
	}
	if got := TopClientsByRevenue(clients, projects, payments, month(2024, time.March), 0); len(got) != 0 {
		t.Fatalf("topN=0 should rank nothing, got %+v", got)
	}
}

func TestTopClientsByRevenueSkipsOrphans(t *testing.T) {
	clients, projects := rankingFixture()
	projects = append(projects, core.Project{ID: "px", ClientID: "gone"})
	payments := []core.Payment{
		pay("pa", 30000, 2024, time.March, 3),
		pay("px", 90000, 2024, time.March, 4),
		pay("deleted", 50000, 2024, time.March, 5),
	}

	got := TopClientsByRevenue(clients, projects, payments, month(2024, time.March), 5)
	if len(got) != 1 || got[0].Client.ID != "A" || got[0].Revenue.Cents != 30000 {
		t.Fatalf("ranking = %+v", got)
	}
	if got[0].PercentOfTotal != 100 {
		t.Errorf("PercentOfTotal = %v, want 100", got[0].PercentOfTotal)
	}

	ov := BuildOverview(Dataset{Clients: clients, Projects: projects, Payments: payments}, month(2024, time.March), DefaultOptions())
	if len(ov.TopClients) != 1 || ov.TopClients[0].Client.ID != "A" {
		t.Errorf("overview ranking = %+v", ov.TopClients)
	}
}

func TestIndex(t *testing.T) {
	clients, projects := rankingFixture()
	projects[0].TotalAmount = core.Money{Cents: 1000000}
	payments := []core.Payment{pay("pa", 600000, 2024, time.March, 1), pay("pa", 600000, 2024, time.April, 1)}

	ix := NewIndex(clients, projects, payments)
	c, ok := ix.ClientOf(payments[0])
	if !ok || c.ID != "A" {
		t.Fatalf("ClientOf() = %+v, %v", c, ok)
	}
	if _, ok := ix.ClientOf(core.Payment{ProjectID: "nope"}); ok {
		t.Fatal("expected orphan payment to be unresolved")
	}
	if got := ix.Pending(projects[0]); got.Cents != -200000 {
		t.Fatalf("Pending() = %d, want -200000", got.Cents)
	}
}

func TestProjectBalances(t *testing.T) {
	clients := []core.Client{{ID: "c", Name: "Acme"}}
	projects := []core.Project{
		{ID: "p1", ClientID: "c", Name: "Site", TotalAmount: core.Money{Cents: 1000000}},
		{ID: "p2", ClientID: "c", Name: "App", TotalAmount: core.Money{Cents: 1000000}},
	}
	payments := []core.Payment{
		pay("p1", 600000, 2024, time.March, 1),
		pay("p2", 1200000, 2024, time.March, 1),
	}
	got := ProjectBalances(clients, projects, payments)
	if got[0].Pending.Cents != 400000 || got[0].Overpaid.Cents != 0 || got[0].ClientName != "Acme" {
		t.Errorf("p1 = %+v", got[0])
	}
	if got[1].Pending.Cents != 0 || got[1].Overpaid.Cents != 200000 {
		t.Errorf("p2 = %+v", got[1])
	}
}

func TestBuildOverview(t *testing.T) {
	ref := month(2024, time.March)
	ds := Dataset{
		Clients: []core.Client{
			{ID: "A", Name: "Acme", CreatedAt: at(2024, time.March, 1)},
			{ID: "B", Name: "Bolt", CreatedAt: at(2024, time.January, 1)},
		},
		Projects: []core.Project{
			{ID: "pa", ClientID: "A", Status: core.StatusActive, TotalAmount: core.Money{Cents: 50000}, CreatedAt: at(2024, time.March, 2)},
			{ID: "pb", ClientID: "B", Status: core.StatusCancelled, TotalAmount: core.Money{Cents: 90000}, CreatedAt: at(2024, time.January, 2)},
		},
		Payments: []core.Payment{
			pay("pa", 20000, 2024, time.March, 5),
			pay("pb", 10000, 2024, time.February, 5),
		},
		Members:      []core.TeamMember{{ID: "m1", Name: "Ana"}, {ID: "m2", Name: "Bo"}},
		TeamPayments: []core.TeamMemberPayment{{TeamMemberID: "m2", Amount: core.Money{Cents: 5000}, Date: core.NewDate(2024, 3, 9)}},
		Investments:  []core.Investment{{Amount: core.Money{Cents: 1000}, Date: core.NewDate(2024, 3, 10)}},
	}

	ov := BuildOverview(ds, ref, Options{})
	if ov.Month != "2024-03" {
		t.Errorf("Month = %q", ov.Month)
	}
	if ov.Revenue.Cents != 20000 || ov.PreviousRevenue.Cents != 10000 || ov.Growth != 100 {
		t.Errorf("revenue = %d prev = %d growth = %v", ov.Revenue.Cents, ov.PreviousRevenue.Cents, ov.Growth)
	}
	if ov.PendingTotal.Cents != 30000 {
		t.Errorf("PendingTotal = %d, want 30000 (cancelled excluded)", ov.PendingTotal.Cents)
	}
	if ov.NewClients != 1 || ov.MonthStatus.Total != 1 || ov.YearStatus.Total != 2 {
		t.Errorf("clients=%d month=%+v year=%+v", ov.NewClients, ov.MonthStatus, ov.YearStatus)
	}
	if len(ov.Series) != 6 || len(ov.TopClients) != 1 {
		t.Errorf("series=%d top=%d", len(ov.Series), len(ov.TopClients))
	}
	if ov.TeamPayouts.Cents != 5000 || ov.Investments.Cents != 1000 || ov.Net.Cents != 14000 {
		t.Errorf("payouts=%d investments=%d net=%d", ov.TeamPayouts.Cents, ov.Investments.Cents, ov.Net.Cents)
	}
	if len(ov.Payouts) != 2 || ov.Payouts[0].Member.ID != "m2" || ov.Payouts[0].Count != 1 {
		t.Errorf("payouts = %+v", ov.Payouts)
	}
}

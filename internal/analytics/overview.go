package analytics

import (
	"sort"
	"time"

	"freelancedesk/internal/core"
)

// Dataset is everything one owner's dashboard is derived from.
type Dataset struct {
	Clients      []core.Client
	Projects     []core.Project
	Payments     []core.Payment
	Members      []core.TeamMember
	TeamPayments []core.TeamMemberPayment
	Investments  []core.Investment
}

// Options tunes the chart and ranking sizes.
type Options struct {
	SeriesMonths int
	TopClients   int
}

func DefaultOptions() Options {
	return Options{SeriesMonths: 6, TopClients: 5}
}

// ProjectBalance is a project's paid and outstanding amounts.
type ProjectBalance struct {
	ProjectID  string     `json:"projectId"`
	ClientName string     `json:"clientName"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Total      core.Money `json:"total"`
	Paid       core.Money `json:"paid"`
	Pending    core.Money `json:"pending"`
	Overpaid   core.Money `json:"overpaid"`
}

// MemberPayout totals what a team member was paid in a period.
type MemberPayout struct {
	Member core.TeamMember `json:"member"`
	Amount core.Money      `json:"amount"`
	Count  int             `json:"count"`
}

// Overview bundles the statistics shown on the dashboard for one month.
type Overview struct {
	Month           string          `json:"month"`
	Revenue         core.Money      `json:"revenue"`
	PreviousRevenue core.Money      `json:"previousRevenue"`
	Growth          float64         `json:"growthPercent"`
	YearRevenue     core.Money      `json:"yearRevenue"`
	PendingTotal    core.Money      `json:"pendingTotal"`
	NewClients      int             `json:"newClients"`
	MonthStatus     StatusTally     `json:"monthStatus"`
	YearStatus      StatusTally     `json:"yearStatus"`
	Series          []SeriesPoint   `json:"series"`
	TopClients      []ClientRevenue `json:"topClients"`
	TeamPayouts     core.Money      `json:"teamPayouts"`
	Investments     core.Money      `json:"investments"`
	Net             core.Money      `json:"net"`
	Payouts         []MemberPayout  `json:"payouts,omitempty"`
}

// MonthKeyLayout formats month query parameters and cache keys.
const MonthKeyLayout = "2006-01"

// BuildOverview computes every dashboard statistic for month.
func BuildOverview(ds Dataset, month time.Time, opts Options) Overview {
	if opts.SeriesMonths <= 0 || opts.TopClients <= 0 {
		def := DefaultOptions()
		if opts.SeriesMonths <= 0 {
			opts.SeriesMonths = def.SeriesMonths
		}
		if opts.TopClients <= 0 {
			opts.TopClients = def.TopClients
		}
	}
	ix := NewIndex(ds.Clients, ds.Projects, ds.Payments)

	ov := Overview{Month: MonthStart(month).Format(MonthKeyLayout)}
	ov.Revenue, ov.PreviousRevenue, ov.Growth = RevenueGrowth(ds.Payments, month)
	ov.YearRevenue = YearlyRevenue(ds.Payments, month)
	ov.NewClients = len(FilterByMonth(ds.Clients, month, ClientCreated))
	ov.MonthStatus = StatusCounts(ds.Projects, MonthScope(month))
	ov.YearStatus = StatusCounts(ds.Projects, YearScope(month))
	ov.Series = MonthlySeries(ds.Payments, ds.Projects, opts.SeriesMonths, month)
	ov.TopClients = rankClients(ix, ds.Clients, ds.Payments, month, opts.TopClients)

	for _, p := range ds.Projects {
		if p.Status == core.StatusCancelled {
			continue
		}
		ov.PendingTotal = ov.PendingTotal.Add(ix.Pending(p).ClampZero())
	}

	for _, tp := range FilterByMonth(ds.TeamPayments, month, TeamPaymentDate) {
		ov.TeamPayouts = ov.TeamPayouts.Add(tp.Amount)
	}
	for _, inv := range FilterByMonth(ds.Investments, month, InvestmentDate) {
		ov.Investments = ov.Investments.Add(inv.Amount)
	}
	ov.Net = ov.Revenue.Sub(ov.TeamPayouts).Sub(ov.Investments)
	if len(ds.Members) > 0 {
		ov.Payouts = PayoutsByMember(ds.Members, ds.TeamPayments, month)
	}
	return ov
}

// ProjectBalances lists every project with its paid and pending amounts.
// Pending is clamped at zero and any excess is reported as Overpaid.
func ProjectBalances(clients []core.Client, projects []core.Project, payments []core.Payment) []ProjectBalance {
	ix := NewIndex(clients, projects, payments)
	out := make([]ProjectBalance, 0, len(projects))
	for _, p := range projects {
		pending := ix.Pending(p)
		b := ProjectBalance{
			ProjectID: p.ID,
			Name:      p.Name,
			Status:    string(p.Status),
			Total:     p.TotalAmount,
			Paid:      ix.Paid(p.ID),
			Pending:   pending.ClampZero(),
		}
		if pending.Cents < 0 {
			b.Overpaid = core.Money{Cents: -pending.Cents}
		}
		if c, ok := ix.Client(p.ClientID); ok {
			b.ClientName = c.Name
		}
		out = append(out, b)
	}
	return out
}

// PayoutsByMember totals team payments in month per member, largest first.
// Members without payments are listed with zero.
func PayoutsByMember(members []core.TeamMember, payments []core.TeamMemberPayment, month time.Time) []MemberPayout {
	byMember := make(map[string]*MemberPayout, len(members))
	out := make([]MemberPayout, len(members))
	for i, m := range members {
		out[i] = MemberPayout{Member: m}
		byMember[m.ID] = &out[i]
	}
	for _, p := range FilterByMonth(payments, month, TeamPaymentDate) {
		if mp, ok := byMember[p.TeamMemberID]; ok {
			mp.Amount = mp.Amount.Add(p.Amount)
			mp.Count++
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

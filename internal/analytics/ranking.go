package analytics

import (
	"sort"
	"time"

	"freelancedesk/internal/core"
)

// ClientRevenue is one bar of the top-clients chart.
type ClientRevenue struct {
	Client         core.Client `json:"client"`
	Revenue        core.Money  `json:"revenue"`
	PercentOfTotal float64     `json:"percentOfTotal"`
}

// TopClientsByRevenue ranks clients by payments received in month.
//
// Payments are joined to clients through their project. Clients without
// revenue in the month are not ranked. Equal revenues keep the order of the
// clients slice. Percentages are shares of the returned subset, so they sum
// to 100 across what is displayed.
func TopClientsByRevenue(clients []core.Client, projects []core.Project, payments []core.Payment, month time.Time, topN int) []ClientRevenue {
	return rankClients(NewIndex(clients, projects, nil), clients, payments, month, topN)
}

// rankClients joins through ix; payments whose project or client is gone
// are skipped.
func rankClients(ix *Index, clients []core.Client, payments []core.Payment, month time.Time, topN int) []ClientRevenue {
	if topN <= 0 {
		return []ClientRevenue{}
	}
	revenue := make(map[string]core.Money, len(clients))
	for _, pay := range FilterByMonth(payments, month, PaymentDate) {
		c, ok := ix.ClientOf(pay)
		if !ok {
			continue
		}
		revenue[c.ID] = revenue[c.ID].Add(pay.Amount)
	}

	ranked := make([]ClientRevenue, 0, len(revenue))
	for _, c := range clients {
		if r := revenue[c.ID]; r.Cents > 0 {
			ranked = append(ranked, ClientRevenue{Client: c, Revenue: r})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Revenue.Cents > ranked[j].Revenue.Cents
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	var total int64
	for _, r := range ranked {
		total += r.Revenue.Cents
	}
	if total > 0 {
		for i := range ranked {
			ranked[i].PercentOfTotal = float64(ranked[i].Revenue.Cents) * 100 / float64(total)
		}
	}
	return ranked
}

package analytics

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"freelancedesk/internal/core"
)

type dashboardContext struct {
	clients  []core.Client
	projects []core.Project
	payments []core.Payment

	revenue core.Money
	tally   StatusTally
	ranking []ClientRevenue
}

func (c *dashboardContext) reset() {
	*c = dashboardContext{}
}

func parseMonth(s string) (time.Time, error) {
	return time.ParseInLocation(MonthKeyLayout, s, time.UTC)
}

func parseAmount(s string) (core.Money, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: n * 100}, nil
}

// rows maps a table to header-keyed rows, skipping the header.
func rows(table *godog.Table) []map[string]string {
	if len(table.Rows) == 0 {
		return nil
	}
	header := table.Rows[0].Cells
	out := make([]map[string]string, 0, len(table.Rows)-1)
	for _, r := range table.Rows[1:] {
		m := make(map[string]string, len(header))
		for i, cell := range r.Cells {
			m[header[i].Value] = cell.Value
		}
		out = append(out, m)
	}
	return out
}

func (c *dashboardContext) theFollowingClients(table *godog.Table) error {
	for _, r := range rows(table) {
		c.clients = append(c.clients, core.Client{ID: r["id"], Name: r["name"]})
	}
	return nil
}

func (c *dashboardContext) theFollowingProjects(table *godog.Table) error {
	for _, r := range rows(table) {
		created, err := core.ParseDate(r["created"])
		if err != nil {
			return err
		}
		total, err := parseAmount(r["total"])
		if err != nil {
			return err
		}
		c.projects = append(c.projects, core.Project{
			ID:          r["id"],
			ClientID:    r["client"],
			Status:      core.ProjectStatus(r["status"]),
			TotalAmount: total,
			CreatedAt:   created.Time,
		})
	}
	return nil
}

func (c *dashboardContext) theFollowingPayments(table *godog.Table) error {
	for _, r := range rows(table) {
		date, err := core.ParseDate(r["date"])
		if err != nil {
			return err
		}
		amount, err := parseAmount(r["amount"])
		if err != nil {
			return err
		}
		c.payments = append(c.payments, core.Payment{ProjectID: r["project"], Amount: amount, Date: date})
	}
	return nil
}

func (c *dashboardContext) iComputeTheRevenueFor(m string) error {
	ref, err := parseMonth(m)
	if err != nil {
		return err
	}
	c.revenue = MonthlyRevenue(c.payments, ref)
	return nil
}

func (c *dashboardContext) theRevenueShouldBe(want int64) error {
	if c.revenue.Cents != want*100 {
		return fmt.Errorf("expected revenue %d, got %s", want, c.revenue)
	}
	return nil
}

func (c *dashboardContext) iCountProjectStatusesFor(m string) error {
	ref, err := parseMonth(m)
	if err != nil {
		return err
	}
	c.tally = StatusCounts(c.projects, MonthScope(ref))
	return nil
}

func (c *dashboardContext) theCountsShouldBe(active, completed, onHold, cancelled, total int) error {
	want := StatusTally{Active: active, Completed: completed, OnHold: onHold, Cancelled: cancelled, Total: total}
	if c.tally != want {
		return fmt.Errorf("expected %+v, got %+v", want, c.tally)
	}
	return nil
}

func (c *dashboardContext) projectShouldShowPending(id string, display, signed int64) error {
	for _, p := range c.projects {
		if p.ID != id {
			continue
		}
		if got := p.PendingDisplay(c.payments); got.Cents != display*100 {
			return fmt.Errorf("expected displayed pending %d, got %s", display, got)
		}
		if got := p.Pending(c.payments); got.Cents != signed*100 {
			return fmt.Errorf("expected signed pending %d, got %s", signed, got)
		}
		return nil
	}
	return fmt.Errorf("project %q not found", id)
}

func (c *dashboardContext) iRankTheTopClientsFor(topN int, m string) error {
	ref, err := parseMonth(m)
	if err != nil {
		return err
	}
	c.ranking = TopClientsByRevenue(c.clients, c.projects, c.payments, ref, topN)
	return nil
}

func (c *dashboardContext) theRankingShouldBe(table *godog.Table) error {
	want := rows(table)
	if len(want) != len(c.ranking) {
		return fmt.Errorf("expected %d ranked clients, got %d", len(want), len(c.ranking))
	}
	for i, r := range want {
		pct, err := strconv.ParseFloat(r["percent"], 64)
		if err != nil {
			return err
		}
		got := c.ranking[i]
		if got.Client.ID != r["client"] || math.Abs(got.PercentOfTotal-pct) > 1e-9 {
			return fmt.Errorf("position %d: expected %s (%v%%), got %s (%v%%)", i, r["client"], pct, got.Client.ID, got.PercentOfTotal)
		}
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	dc := &dashboardContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		dc.reset()
		return ctx, nil
	})

	ctx.Step(`^the following clients:$`, dc.theFollowingClients)
	ctx.Step(`^the following projects:$`, dc.theFollowingProjects)
	ctx.Step(`^the following payments:$`, dc.theFollowingPayments)
	ctx.Step(`^I compute the revenue for "([^"]*)"$`, dc.iComputeTheRevenueFor)
	ctx.Step(`^the revenue should be (\d+)$`, dc.theRevenueShouldBe)
	ctx.Step(`^I count project statuses for "([^"]*)"$`, dc.iCountProjectStatusesFor)
	ctx.Step(`^the counts should be (\d+) active, (\d+) completed, (\d+) on hold, (\d+) cancelled and (\d+) in total$`, dc.theCountsShouldBe)
	ctx.Step(`^project "([^"]*)" should show (\d+) pending with a signed remainder of (-?\d+)$`, dc.projectShouldShowPending)
	ctx.Step(`^I rank the top (\d+) clients for "([^"]*)"$`, dc.iRankTheTopClientsFor)
	ctx.Step(`^the ranking should be:$`, dc.theRankingShouldBe)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

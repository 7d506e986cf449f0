package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"freelancedesk/internal/analytics"
	"freelancedesk/internal/cache"
	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

// DashboardSnapshot is a computed overview plus per-project balances.
type DashboardSnapshot struct {
	Overview analytics.Overview         `json:"overview"`
	Balances []analytics.ProjectBalance `json:"balances"`
	Computed time.Time                  `json:"computedAt"`
}

type DashboardService struct {
	store  Store
	cache  cache.Cache[DashboardSnapshot]
	logger *log.Logger
	now    func() time.Time
}

func NewDashboardService(store Store, c cache.Cache[DashboardSnapshot], logger *log.Logger, now func() time.Time) *DashboardService {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentDashboard})
	}
	if now == nil {
		now = time.Now
	}
	return &DashboardService{store: store, cache: c, logger: logger.WithComponent(log.ComponentDashboard), now: now}
}

func cacheKey(owner string, month time.Time, opts analytics.Options) string {
	return fmt.Sprintf("%s|%s|%d|%d", owner, month.Format(analytics.MonthKeyLayout), opts.SeriesMonths, opts.TopClients)
}

// Overview computes the dashboard for month. A zero month means the
// current one.
func (s *DashboardService) Overview(ctx context.Context, owner string, month time.Time, opts analytics.Options) (DashboardSnapshot, error) {
	if month.IsZero() {
		month = s.now()
	}
	month = utcMonth(month)

	key := cacheKey(owner, month, opts)
	if s.cache != nil {
		if snap, ok := s.cache.Get(key); ok {
			return snap, nil
		}
	}

	ds, err := s.Load(ctx, owner)
	if err != nil {
		return DashboardSnapshot{}, err
	}
	snap := DashboardSnapshot{
		Overview: analytics.BuildOverview(ds, month, opts),
		Balances: analytics.ProjectBalances(ds.Clients, ds.Projects, ds.Payments),
		Computed: s.now().UTC(),
	}
	if s.cache != nil {
		s.cache.Set(key, snap)
	}
	return snap, nil
}

// utcMonth keeps the calendar month of t as seen in t's own location and
// anchors it in UTC, where payment and creation dates are stored.
func utcMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// Load fetches every collection of the owner concurrently. The first failure
// cancels the others. Team data is loaded only for agencies.
func (s *DashboardService) Load(ctx context.Context, owner string) (analytics.Dataset, error) {
	var ds analytics.Dataset
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		ds.Clients, err = s.store.ListClients(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		ds.Projects, err = s.store.ListProjects(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		ds.Payments, err = s.store.ListPayments(gctx, owner)
		return err
	})
	g.Go(func() error {
		profile, err := s.store.GetProfile(gctx, owner)
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if !profile.IsAgency() {
			return nil
		}
		tg, tctx := errgroup.WithContext(gctx)
		tg.Go(func() (err error) {
			ds.Members, err = s.store.ListTeamMembers(tctx, owner)
			return err
		})
		tg.Go(func() (err error) {
			ds.TeamPayments, err = s.store.ListTeamPayments(tctx, owner)
			return err
		})
		tg.Go(func() (err error) {
			ds.Investments, err = s.store.ListInvestments(tctx, owner)
			return err
		})
		return tg.Wait()
	})

	if err := g.Wait(); err != nil {
		return analytics.Dataset{}, fmt.Errorf("load dashboard data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return analytics.Dataset{}, err
	}
	return ds, nil
}

// Invalidate drops every cached snapshot of owner.
func (s *DashboardService) Invalidate(owner string) {
	if s == nil || s.cache == nil {
		return
	}
	if n := s.cache.DeletePrefix(owner + "|"); n > 0 {
		s.logger.Debug("Dashboard cache invalidated", log.FieldOwner, owner, "entries", n)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}

// Package services holds the business operations behind the HTTP API and
// the command line tools. Writes persist first; notifications and ledger
// mirroring follow as best-effort side effects.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freelancedesk/internal/cache"
	"freelancedesk/internal/invoice"
	"freelancedesk/internal/log"
)

// Options configures New.
type Options struct {
	Publisher Publisher
	Logger    *log.Logger
	Renderer  *invoice.Renderer
	// DashboardCache may be nil to disable caching.
	DashboardCache cache.Cache[DashboardSnapshot]
	Now            func() time.Time
}

// Services bundles every service over one store.
type Services struct {
	Clients     *ClientService
	Projects    *ProjectService
	Payments    *PaymentService
	Team        *TeamService
	Investments *InvestmentService
	Profiles    *ProfileService
	Dashboard   *DashboardService

	store  Store
	events *events
}

func New(store Store, opts Options) *Services {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Component: log.ComponentApp})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ev := &events{publisher: opts.Publisher, profiles: store, logger: opts.Logger.WithComponent(log.ComponentNotify)}
	dash := NewDashboardService(store, opts.DashboardCache, opts.Logger, opts.Now)
	agency := &agencyGuard{profiles: store}

	return &Services{
		Clients:     &ClientService{store: store, events: ev, dash: dash, logger: opts.Logger.WithComponent(log.ComponentClients)},
		Projects:    &ProjectService{store: store, events: ev, dash: dash, agency: agency, renderer: opts.Renderer, now: opts.Now, logger: opts.Logger.WithComponent(log.ComponentProjects)},
		Payments:    &PaymentService{store: store, events: ev, dash: dash, logger: opts.Logger.WithComponent(log.ComponentPayments)},
		Team:        &TeamService{store: store, agency: agency, dash: dash, logger: opts.Logger.WithComponent(log.ComponentTeam)},
		Investments: &InvestmentService{store: store, agency: agency, dash: dash},
		Profiles:    &ProfileService{store: store, logger: opts.Logger.WithComponent(log.ComponentAuth)},
		Dashboard:   dash,
		store:       store,
		events:      ev,
	}
}

// Ready checks that storage is reachable and migrated.
func (s *Services) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Drain waits for in-flight side effects, bounded by ctx.
func (s *Services) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.events.wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains side effects and closes the store.
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	if err := s.Drain(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain side effects: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	return errors.Join(errs...)
}

package services

import (
	"context"
	"fmt"

	"freelancedesk/internal/core"
)

// InvestmentService tracks money an agency put back into the business.
type InvestmentService struct {
	store  Store
	agency *agencyGuard
	dash   *DashboardService
}

func (s *InvestmentService) Create(ctx context.Context, agency string, i core.Investment) (core.Investment, error) {
	if err := s.agency.require(ctx, agency); err != nil {
		return core.Investment{}, err
	}
	i.AgencyID = agency
	if err := i.Validate(); err != nil {
		return core.Investment{}, err
	}
	created, err := s.store.CreateInvestment(ctx, i)
	if err != nil {
		return core.Investment{}, fmt.Errorf("save investment: %w", err)
	}
	s.dash.Invalidate(agency)
	return created, nil
}

func (s *InvestmentService) List(ctx context.Context, agency string) ([]core.Investment, error) {
	if err := s.agency.require(ctx, agency); err != nil {
		return nil, err
	}
	return s.store.ListInvestments(ctx, agency)
}

func (s *InvestmentService) Update(ctx context.Context, agency string, i core.Investment) (core.Investment, error) {
	if err := s.agency.require(ctx, agency); err != nil {
		return core.Investment{}, err
	}
	i.AgencyID = agency
	if err := i.Validate(); err != nil {
		return core.Investment{}, err
	}
	updated, err := s.store.UpdateInvestment(ctx, i)
	if err != nil {
		return core.Investment{}, err
	}
	s.dash.Invalidate(agency)
	return updated, nil
}

func (s *InvestmentService) Delete(ctx context.Context, agency, id string) error {
	if err := s.agency.require(ctx, agency); err != nil {
		return err
	}
	if err := s.store.DeleteInvestment(ctx, agency, id); err != nil {
		return err
	}
	s.dash.Invalidate(agency)
	return nil
}

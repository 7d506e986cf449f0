package services

import (
	"context"
	"errors"
	"fmt"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

// TeamService manages an agency's members and what they were paid. Every
// call requires the owner to be an agency.
type TeamService struct {
	store  Store
	agency *agencyGuard
	dash   *DashboardService
	logger *log.Logger
}

func (s *TeamService) CreateMember(ctx context.Context, agency string, m core.TeamMember) (core.TeamMember, error) {
	if err := s.agency.require(ctx, agency); err != nil {
		return core.TeamMember{}, err
	}
	m.AgencyID = agency
	if err := m.Validate(); err != nil {
		return core.TeamMember{}, err
	}
	created, err := s.store.CreateTeamMember(ctx, m)
	if err != nil {
		return core.TeamMember{}, fmt.Errorf("save team member: %w", err)
	}
	s.logger.InfoContext(ctx, "Team member added", log.FieldOwner, agency, log.FieldEntityID, created.ID)
	return created, nil
}

func (s *TeamService) ListMembers(ctx context.Context, agency string) ([]core.TeamMember, error) {
	if err := s.agency.require(ctx, agency); err != nil {
		return nil, err
	}
	return s.store.ListTeamMembers(ctx, agency)
}

func (s *TeamService) UpdateMember(ctx context.Context, agency string, m core.TeamMember) (core.TeamMember, error) {
	if err := s.agency.require(ctx, agency); err != nil {
		return core.TeamMember{}, err
	}
	m.AgencyID = agency
	if err := m.Validate(); err != nil {
		return core.TeamMember{}, err
	}
	return s.store.UpdateTeamMember(ctx, m)
}

// DeleteMember refuses members with recorded payouts (core.ErrConflict).
func (s *TeamService) DeleteMember(ctx context.Context, agency, id string) error {
	if err := s.agency.require(ctx, agency); err != nil {
		return err
	}
	return s.store.DeleteTeamMember(ctx, agency, id)
}

func (s *TeamService) checkPayment(ctx context.Context, agency string, p *core.TeamMemberPayment) error {
	p.AgencyID = agency
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetTeamMember(ctx, agency, p.TeamMemberID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return &core.ValidationError{Field: "team_member_id", Err: core.ErrMissingReference}
		}
		return err
	}
	if p.ProjectID != "" {
		if _, err := s.store.GetProject(ctx, agency, p.ProjectID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return &core.ValidationError{Field: "project_id", Err: core.ErrMissingReference}
			}
			return err
		}
	}
	return nil
}

func (s *TeamService) CreatePayment(ctx context.Context, agency string, p core.TeamMemberPayment) (core.TeamMemberPayment, error) {
	if err := s.agency.require(ctx, agency); err != nil {
		return core.TeamMemberPayment{}, err
	}
	if err := s.checkPayment(ctx, agency, &p); err != nil {
		return core.TeamMemberPayment{}, err
	}
	created, err := s.store.CreateTeamPayment(ctx, p)
	if err != nil {
		return core.TeamMemberPayment{}, fmt.Errorf("save team payment: %w", err)
	}
	s.dash.Invalidate(agency)
	return created, nil
}

// ListPayments returns all payouts, or one member's when memberID is set.
func (s *TeamService) ListPayments(ctx context.Context, agency, memberID string) ([]core.TeamMemberPayment, error) {
	if err := s.agency.require(ctx, agency); err != nil {
		return nil, err
	}
	if memberID != "" {
		return s.store.ListTeamPaymentsByMember(ctx, agency, memberID)
	}
	return s.store.ListTeamPayments(ctx, agency)
}

func (s *TeamService) UpdatePayment(ctx context.Context, agency string, p core.TeamMemberPayment) (core.TeamMemberPayment, error) {
	if err := s.agency.require(ctx, agency); err != nil {
		return core.TeamMemberPayment{}, err
	}
	if err := s.checkPayment(ctx, agency, &p); err != nil {
		return core.TeamMemberPayment{}, err
	}
	updated, err := s.store.UpdateTeamPayment(ctx, p)
	if err != nil {
		return core.TeamMemberPayment{}, err
	}
	s.dash.Invalidate(agency)
	return updated, nil
}

func (s *TeamService) DeletePayment(ctx context.Context, agency, id string) error {
	if err := s.agency.require(ctx, agency); err != nil {
		return err
	}
	if err := s.store.DeleteTeamPayment(ctx, agency, id); err != nil {
		return err
	}
	s.dash.Invalidate(agency)
	return nil
}

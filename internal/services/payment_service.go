package services

import (
	"context"
	"errors"
	"fmt"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

type PaymentService struct {
	store  Store
	events *events
	dash   *DashboardService
	logger *log.Logger
}

// Create records a payment against one of the owner's projects and queues
// it for the spreadsheet ledger.
func (s *PaymentService) Create(ctx context.Context, owner string, p core.Payment) (core.Payment, error) {
	p.OwnerID = owner
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	if _, err := s.store.GetProject(ctx, owner, p.ProjectID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Payment{}, &core.ValidationError{Field: "project_id", Err: core.ErrMissingReference}
		}
		return core.Payment{}, err
	}

	created, err := s.store.CreatePayment(ctx, p)
	if err != nil {
		return core.Payment{}, fmt.Errorf("save payment: %w", err)
	}
	s.dash.Invalidate(owner)
	s.logger.InfoContext(ctx, "Payment recorded", log.NewFields().
		WithEntity(owner, "payment", created.ID).
		WithAmount(created.Amount.Cents).
		ToSlice()...)

	s.events.ledger(ctx, created)
	return created, nil
}

func (s *PaymentService) Get(ctx context.Context, owner, id string) (core.Payment, error) {
	return s.store.GetPayment(ctx, owner, id)
}

// List returns every payment, or one project's when projectID is set.
func (s *PaymentService) List(ctx context.Context, owner, projectID string) ([]core.Payment, error) {
	if projectID != "" {
		if _, err := s.store.GetProject(ctx, owner, projectID); err != nil {
			return nil, err
		}
		return s.store.ListPaymentsByProject(ctx, owner, projectID)
	}
	return s.store.ListPayments(ctx, owner)
}

func (s *PaymentService) Delete(ctx context.Context, owner, id string) error {
	if err := s.store.DeletePayment(ctx, owner, id); err != nil {
		return err
	}
	s.dash.Invalidate(owner)
	return nil
}

package services

import (
	"context"
	"fmt"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

type ClientService struct {
	store  Store
	events *events
	dash   *DashboardService
	logger *log.Logger
}

// Create stores a new client and, for automated agencies, emails a welcome
// message to the client.
func (s *ClientService) Create(ctx context.Context, owner string, c core.Client) (core.Client, error) {
	c.OwnerID = owner
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	created, err := s.store.CreateClient(ctx, c)
	if err != nil {
		return core.Client{}, fmt.Errorf("save client: %w", err)
	}
	s.dash.Invalidate(owner)
	s.logger.InfoContext(ctx, "Client created", log.FieldOwner, owner, log.FieldEntityID, created.ID)

	s.events.notify(ctx, owner, core.Notification{
		Kind:       core.NotifyClientCreated,
		To:         created.Email,
		ToName:     created.Name,
		OccurredAt: created.CreatedAt,
	})
	return created, nil
}

func (s *ClientService) Get(ctx context.Context, owner, id string) (core.Client, error) {
	return s.store.GetClient(ctx, owner, id)
}

func (s *ClientService) List(ctx context.Context, owner string) ([]core.Client, error) {
	return s.store.ListClients(ctx, owner)
}

func (s *ClientService) Update(ctx context.Context, owner string, c core.Client) (core.Client, error) {
	c.OwnerID = owner
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	updated, err := s.store.UpdateClient(ctx, c)
	if err != nil {
		return core.Client{}, err
	}
	s.dash.Invalidate(owner)
	return updated, nil
}

// Delete removes a client. Clients with projects are refused with
// core.ErrConflict; delete or reassign the projects first.
func (s *ClientService) Delete(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteClient(ctx, owner, id); err != nil {
		return err
	}
	s.dash.Invalidate(owner)
	s.logger.InfoContext(ctx, "Client deleted", log.FieldOwner, owner, log.FieldEntityID, id)
	return nil
}

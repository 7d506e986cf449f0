package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"freelancedesk/internal/core"
	"freelancedesk/internal/invoice"
	"freelancedesk/internal/log"
)

type ProjectService struct {
	store    Store
	events   *events
	dash     *DashboardService
	agency   *agencyGuard
	renderer *invoice.Renderer
	now      func() time.Time
	logger   *log.Logger
}

// prepare enforces the cross-record rules: the client must belong to the
// owner, assigned members must exist in the owner's team, and the completion
// date follows the status.
func (s *ProjectService) prepare(ctx context.Context, owner string, p *core.Project, previous *core.Project) error {
	p.OwnerID = owner
	switch {
	case p.Status == core.StatusCompleted && p.CompletedDate.IsZero():
		if previous != nil && !previous.CompletedDate.IsZero() {
			p.CompletedDate = previous.CompletedDate
		} else {
			now := s.now()
			p.CompletedDate = core.NewDate(now.Year(), int(now.Month()), now.Day())
		}
	case p.Status != core.StatusCompleted:
		p.CompletedDate = core.Date{}
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if _, err := s.store.GetClient(ctx, owner, p.ClientID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return &core.ValidationError{Field: "client_id", Err: core.ErrMissingReference}
		}
		return err
	}
	if len(p.TeamMembers) > 0 {
		if err := s.agency.require(ctx, owner); err != nil {
			return err
		}
		for _, id := range p.TeamMembers {
			if _, err := s.store.GetTeamMember(ctx, owner, id); err != nil {
				if errors.Is(err, core.ErrNotFound) {
					return &core.ValidationError{Field: "team_members", Err: core.ErrMissingReference}
				}
				return err
			}
		}
	}
	return nil
}

func (s *ProjectService) Create(ctx context.Context, owner string, p core.Project) (core.Project, error) {
	if err := s.prepare(ctx, owner, &p, nil); err != nil {
		return core.Project{}, err
	}
	created, err := s.store.CreateProject(ctx, p)
	if err != nil {
		return core.Project{}, fmt.Errorf("save project: %w", err)
	}
	s.dash.Invalidate(owner)
	s.logger.InfoContext(ctx, "Project created", log.FieldOwner, owner, log.FieldEntityID, created.ID)
	return created, nil
}

func (s *ProjectService) Get(ctx context.Context, owner, id string) (core.Project, error) {
	return s.store.GetProject(ctx, owner, id)
}

// List returns every project, or only one client's when clientID is set.
func (s *ProjectService) List(ctx context.Context, owner, clientID string) ([]core.Project, error) {
	if clientID != "" {
		return s.store.ListProjectsByClient(ctx, owner, clientID)
	}
	return s.store.ListProjects(ctx, owner)
}

// Update saves p. A status transition emails the client when the owner
// automates email.
func (s *ProjectService) Update(ctx context.Context, owner string, p core.Project) (core.Project, error) {
	previous, err := s.store.GetProject(ctx, owner, p.ID)
	if err != nil {
		return core.Project{}, err
	}
	if err := s.prepare(ctx, owner, &p, &previous); err != nil {
		return core.Project{}, err
	}
	updated, err := s.store.UpdateProject(ctx, p)
	if err != nil {
		return core.Project{}, err
	}
	s.dash.Invalidate(owner)

	if previous.Status != updated.Status {
		s.logger.InfoContext(ctx, "Project status changed",
			log.FieldOwner, owner,
			log.FieldEntityID, updated.ID,
			"from", string(previous.Status),
			"to", string(updated.Status))
		if client, err := s.store.GetClient(ctx, owner, updated.ClientID); err == nil {
			s.events.notify(ctx, owner, core.Notification{
				Kind:        core.NotifyProjectStatusChanged,
				To:          client.Email,
				ToName:      client.Name,
				ProjectName: updated.Name,
				FromStatus:  previous.Status,
				ToStatus:    updated.Status,
				OccurredAt:  updated.UpdatedAt,
			})
		}
	}
	return updated, nil
}

// Delete removes a project and its payments in one transaction.
func (s *ProjectService) Delete(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteProject(ctx, owner, id); err != nil {
		return err
	}
	s.dash.Invalidate(owner)
	s.logger.InfoContext(ctx, "Project deleted", log.FieldOwner, owner, log.FieldEntityID, id)
	return nil
}

// DueReminders returns projects whose reminder date is today or earlier.
func (s *ProjectService) DueReminders(ctx context.Context, owner string) ([]core.Project, error) {
	now := s.now()
	return s.store.ListDueReminders(ctx, owner, core.NewDate(now.Year(), int(now.Month()), now.Day()))
}

// DismissReminder clears a consumed reminder.
func (s *ProjectService) DismissReminder(ctx context.Context, owner, id string) error {
	return s.store.ClearReminder(ctx, owner, id)
}

// Balance returns what was paid on a project and what is still due.
func (s *ProjectService) Balance(ctx context.Context, owner, id string) (core.Project, []core.Payment, error) {
	p, err := s.store.GetProject(ctx, owner, id)
	if err != nil {
		return core.Project{}, nil, err
	}
	payments, err := s.store.ListPaymentsByProject(ctx, owner, id)
	if err != nil {
		return core.Project{}, nil, err
	}
	return p, payments, nil
}

// maxInvoiceNotes bounds the free text printed under the totals.
const maxInvoiceNotes = 2000

// InvoiceOptions selects the theme and the notes printed on an invoice.
type InvoiceOptions struct {
	Template string
	Notes    string
}

// Invoice renders the project's invoice as HTML into w.
func (s *ProjectService) Invoice(ctx context.Context, w io.Writer, owner, id string, opts InvoiceOptions) error {
	if s.renderer == nil {
		return errors.New("invoice renderer not configured")
	}
	notes := strings.TrimSpace(opts.Notes)
	if utf8.RuneCountInString(notes) > maxInvoiceNotes {
		return &core.ValidationError{Field: "notes", Err: core.ErrNotesTooLong}
	}
	data, profile, err := s.InvoiceData(ctx, owner, id)
	if err != nil {
		return err
	}
	data.Notes = notes
	if err := s.renderer.Render(w, data, profile, opts.Template); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Invoice rendered",
		log.FieldOwner, owner,
		log.FieldEntityID, id,
		log.FieldTemplate, opts.Template)
	return nil
}

// InvoiceData gathers everything an invoice shows.
func (s *ProjectService) InvoiceData(ctx context.Context, owner, id string) (invoice.Data, core.UserProfile, error) {
	p, payments, err := s.Balance(ctx, owner, id)
	if err != nil {
		return invoice.Data{}, core.UserProfile{}, err
	}
	client, err := s.store.GetClient(ctx, owner, p.ClientID)
	if err != nil {
		return invoice.Data{}, core.UserProfile{}, fmt.Errorf("load invoice client: %w", err)
	}
	profile, err := s.store.GetProfile(ctx, owner)
	if err != nil {
		return invoice.Data{}, core.UserProfile{}, fmt.Errorf("load issuer profile: %w", err)
	}
	return invoice.Build(p, client, payments, s.now()), profile, nil
}

// InvoiceTemplates lists the id and display name of each invoice theme.
func (s *ProjectService) InvoiceTemplates() []InvoiceTemplate {
	if s.renderer == nil {
		return nil
	}
	themes := s.renderer.Themes()
	out := make([]InvoiceTemplate, 0, len(themes))
	for _, t := range themes {
		out = append(out, InvoiceTemplate{ID: t.ID, Name: t.Name})
	}
	return out
}

// InvoiceTemplate names a selectable invoice theme.
type InvoiceTemplate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

package http

import (
	"bytes"
	"net/http"
	"sync/atomic"

	"freelancedesk/internal/analytics"
	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
	"freelancedesk/internal/services"
)

// handleListProjects lists every project, or one client's with ?clientId=.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.Projects.List(r.Context(), owner(r), QueryParam(r, "clientId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Projects.Get(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, p)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in core.Project
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = ""
	p, err := s.svc.Projects.Create(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpCreate, "project", p.ID)
	NewJSONResponse().Status(http.StatusCreated).Write(w, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var in core.Project
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = r.PathValue("id")
	p, err := s.svc.Projects.Update(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpUpdate, "project", p.ID)
	NewJSONResponse().Write(w, p)
}

// handleDeleteProject removes the project together with its payments.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Projects.Delete(r.Context(), owner(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpDelete, "project", id)
	NewJSONResponse().Empty(w)
}

type projectPayments struct {
	Project  core.Project   `json:"project"`
	Payments []core.Payment `json:"payments"`
	Paid     core.Money     `json:"paid"`
	Pending  core.Money     `json:"pending"`
}

// handleProjectPayments returns a project's payments with its balance.
func (s *Server) handleProjectPayments(w http.ResponseWriter, r *http.Request) {
	p, payments, err := s.svc.Projects.Balance(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	paid := analytics.SumPayments(payments)
	NewJSONResponse().Write(w, projectPayments{
		Project:  p,
		Payments: payments,
		Paid:     paid,
		Pending:  p.TotalAmount.Sub(paid).ClampZero(),
	})
}

// handleProjectInvoice renders the invoice HTML with ?template=, falling
// back to the configured default theme. ?notes= is printed under the totals.
func (s *Server) handleProjectInvoice(w http.ResponseWriter, r *http.Request) {
	templateID := QueryParam(r, "template")
	if templateID == "" {
		templateID = s.defaultTheme
	}

	var buf bytes.Buffer
	if err := s.svc.Projects.Invoice(r.Context(), &buf, owner(r), r.PathValue("id"), services.InvoiceOptions{
		Template: templateID,
		Notes:    QueryParam(r, "notes"),
	}); err != nil {
		writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.invoices, 1)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleInvoiceTemplates(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Write(w, map[string]any{
		"default":   s.defaultTheme,
		"templates": s.svc.Projects.InvoiceTemplates(),
	})
}

// handleReminders lists projects whose reminder date has come.
func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.Projects.DueReminders(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, projects)
}

func (s *Server) handleDismissReminder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Projects.DismissReminder(r.Context(), owner(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpUpdate, "project", id)
	NewJSONResponse().Empty(w)
}

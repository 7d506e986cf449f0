package http

import (
	"net/http"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

// handleListPayments lists every payment, or one project's with ?projectId=.
func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.svc.Payments.List(r.Context(), owner(r), QueryParam(r, "projectId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, payments)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var in core.Payment
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = ""
	p, err := s.svc.Payments.Create(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpCreate, "payment", p.ID)
	NewJSONResponse().Status(http.StatusCreated).Write(w, p)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Payments.Delete(r.Context(), owner(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpDelete, "payment", id)
	NewJSONResponse().Empty(w)
}

package http

import (
	"net/http"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.svc.Clients.List(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, clients)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Clients.Get(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, c)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var in core.Client
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = ""
	c, err := s.svc.Clients.Create(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpCreate, "client", c.ID)
	NewJSONResponse().Status(http.StatusCreated).Write(w, c)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var in core.Client
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = r.PathValue("id")
	c, err := s.svc.Clients.Update(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpUpdate, "client", c.ID)
	NewJSONResponse().Write(w, c)
}

// handleDeleteClient refuses clients that still have projects with 409.
func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Clients.Delete(r.Context(), owner(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpDelete, "client", id)
	NewJSONResponse().Empty(w)
}

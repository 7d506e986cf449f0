package http

import (
	"net/http"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profiles.Get(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, p)
}

// handleUpdateProfile saves the editable fields; the plan is kept as stored.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in core.UserProfile
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.Profiles.Update(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpUpdate, "profile", p.ID)
	NewJSONResponse().Write(w, p)
}

// handleAvatar returns the photo URL, or a gravatar sized by ?size=.
func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	size, err := ParseIntParam(r.URL.Query(), "size", 80, 1, 2048)
	if err != nil {
		writeError(w, r, err)
		return
	}
	url, err := s.svc.Profiles.Avatar(r.Context(), owner(r), size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, map[string]string{"url": url})
}

package http

import (
	"net/http"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

// Team and investment routes are agency only; the services answer 403 for
// other accounts.

func (s *Server) handleListTeamMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.svc.Team.ListMembers(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, members)
}

func (s *Server) handleCreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var in core.TeamMember
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = ""
	m, err := s.svc.Team.CreateMember(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpCreate, "team_member", m.ID)
	NewJSONResponse().Status(http.StatusCreated).Write(w, m)
}

func (s *Server) handleUpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	var in core.TeamMember
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = r.PathValue("id")
	m, err := s.svc.Team.UpdateMember(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpUpdate, "team_member", m.ID)
	NewJSONResponse().Write(w, m)
}

// handleDeleteTeamMember answers 409 while the member still has payments.
func (s *Server) handleDeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Team.DeleteMember(r.Context(), owner(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpDelete, "team_member", id)
	NewJSONResponse().Empty(w)
}

// handleListTeamPayments lists every payout, or one member's with ?memberId=.
func (s *Server) handleListTeamPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.svc.Team.ListPayments(r.Context(), owner(r), QueryParam(r, "memberId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, payments)
}

func (s *Server) handleCreateTeamPayment(w http.ResponseWriter, r *http.Request) {
	var in core.TeamMemberPayment
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = ""
	p, err := s.svc.Team.CreatePayment(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpCreate, "team_payment", p.ID)
	NewJSONResponse().Status(http.StatusCreated).Write(w, p)
}

func (s *Server) handleUpdateTeamPayment(w http.ResponseWriter, r *http.Request) {
	var in core.TeamMemberPayment
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = r.PathValue("id")
	p, err := s.svc.Team.UpdatePayment(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpUpdate, "team_payment", p.ID)
	NewJSONResponse().Write(w, p)
}

func (s *Server) handleDeleteTeamPayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Team.DeletePayment(r.Context(), owner(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpDelete, "team_payment", id)
	NewJSONResponse().Empty(w)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := s.svc.Investments.List(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Write(w, investments)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var in core.Investment
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = ""
	inv, err := s.svc.Investments.Create(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpCreate, "investment", inv.ID)
	NewJSONResponse().Status(http.StatusCreated).Write(w, inv)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	var in core.Investment
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = r.PathValue("id")
	inv, err := s.svc.Investments.Update(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpUpdate, "investment", inv.ID)
	NewJSONResponse().Write(w, inv)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Investments.Delete(r.Context(), owner(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.recordWrite(r, log.OpDelete, "investment", id)
	NewJSONResponse().Empty(w)
}

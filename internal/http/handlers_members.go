package http

import (
	"net/http"

	"aura/internal/core"
)

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.ledger.ListMembersWithStats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if members == nil {
		members = []core.MemberStats{}
	}
	NewJSONResponse().Body(members).Send(w)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var in core.CreateMemberInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.ledger.CreateMember(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(m).Send(w)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in core.UpdateMemberInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.ledger.UpdateMember(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(m).Send(w)
}

// handleDeleteMember succeeds for ids that no longer exist.
func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteMember(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(map[string]bool{"success": true}).Send(w)
}

package http

import (
	"net/http"

	"aura/internal/core"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := optionalInstant(q, "start")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := optionalInstant(q, "end")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ov, err := s.ledger.GetOverview(r.Context(), start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(ov).Send(w)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	start, end, err := timelineRange(r.URL.Query(), s.ledger.Now(), s.ledger.Location(), s.ledger.OverviewDays())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tl, err := s.ledger.GetTimeline(r.Context(), start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(tl).Send(w)
}

func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var in core.RecordEventInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.ledger.RecordEvent(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(item).Send(w)
}

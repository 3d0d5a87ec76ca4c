package http

import (
	"fmt"
	"net/http"
	"strconv"

	"eglise/internal/core"
)

func pathYear(r *http.Request) (int, error) {
	y, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid year %q", core.ErrValidation, r.PathValue("year"))
	}
	return y, nil
}

func (s *Server) handleListYears(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.repo.ListYearSummaries(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetYear(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	summary, err := s.repo.GetYearSummary(r.Context(), year)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if summary == nil {
		writeError(r.Context(), w, fmt.Errorf("%w: year %d has no summary", core.ErrNotFound, year))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListYearContributions(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	contributions, err := s.repo.ListContributionsByYearWithMember(r.Context(), year)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, contributions)
}

type closeYearRequest struct {
	Note *string `json:"note"`
}

func (s *Server) handleCloseYear(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req closeYearRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}
	}

	summary, err := s.years.CloseYear(r.Context(), year, req.Note)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReopenYear(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	summary, err := s.repo.ReopenYear(r.Context(), year)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

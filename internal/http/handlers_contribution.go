package http

import (
	"fmt"
	"net/http"
	"strconv"

	"eglise/internal/core"
)

// handleListContributions lists a year's contributions, newest first.
func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(r.Context(), w, fmt.Errorf("%w: invalid year %q", core.ErrValidation, r.URL.Query().Get("year")))
		return
	}

	contributions, err := s.repo.ListContributionsByYear(r.Context(), year)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, contributions)
}

func (s *Server) handleCreateContribution(w http.ResponseWriter, r *http.Request) {
	var in core.ContributionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	contribution, err := s.repo.CreateContribution(r.Context(), in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contribution)
}

func (s *Server) handleDeleteContribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	if err := s.repo.DeleteContribution(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"fmt"
	"net/http"

	"eglise/internal/core"
)

// handleListMembers lists members, optionally filtered by ?type= and
// enriched with contribution totals via ?totals=1.
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	memberType := r.URL.Query().Get("type")
	withTotals := r.URL.Query().Get("totals") == "1"

	if withTotals {
		if !core.ValidMemberType(memberType) {
			writeError(r.Context(), w, fmt.Errorf("%w: unknown member type %q", core.ErrValidation, memberType))
			return
		}
		members, err := s.repo.ListMembersByTypeWithTotal(r.Context(), memberType)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, members)
		return
	}

	if memberType != "" {
		if !core.ValidMemberType(memberType) {
			writeError(r.Context(), w, fmt.Errorf("%w: unknown member type %q", core.ErrValidation, memberType))
			return
		}
		members, err := s.repo.ListMembersByType(r.Context(), memberType)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, members)
		return
	}

	members, err := s.repo.ListMembers(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var in core.MemberInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	member, err := s.repo.CreateMember(r.Context(), in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	member, err := s.repo.GetMember(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var in core.MemberInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	member, err := s.repo.UpdateMember(r.Context(), id, in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	if err := s.repo.DeleteMember(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferRequest struct {
	MemberIDs  []int64 `json:"member_ids"`
	MemberType string  `json:"member_type"`
}

func (s *Server) handleTransferMembers(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	n, err := s.repo.TransferMembers(r.Context(), req.MemberIDs, req.MemberType)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"transferred": n})
}

func (s *Server) handleListMemberContributions(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	contributions, err := s.repo.ListContributions(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, contributions)
}

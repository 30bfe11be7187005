package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"platemap/internal/app/moderation"
	"platemap/internal/store"
)

type moderationRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

type bulkModerationRequest struct {
	IDs    []int64 `json:"ids"`
	Notes  string  `json:"notes"`
	Reason string  `json:"reason"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req moderationRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	loc, err := s.moderation.Approve(r.Context(), id, req.Notes)
	if err != nil {
		s.writeModerationError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req moderationRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	loc, err := s.moderation.Reject(r.Context(), id, req.Reason, req.Notes)
	if err != nil {
		s.writeModerationError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleBulkApprove(w http.ResponseWriter, r *http.Request) {
	var req bulkModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ids are required"})
		return
	}

	outcomes := s.moderation.BulkApprove(r.Context(), req.IDs, req.Notes)
	writeJSON(w, http.StatusOK, struct {
		Outcomes []moderation.Outcome `json:"outcomes"`
	}{Outcomes: outcomes})
}

func (s *Server) handleBulkReject(w http.ResponseWriter, r *http.Request) {
	var req bulkModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ids are required"})
		return
	}

	outcomes := s.moderation.BulkReject(r.Context(), req.IDs, req.Reason, req.Notes)
	writeJSON(w, http.StatusOK, struct {
		Outcomes []moderation.Outcome `json:"outcomes"`
	}{Outcomes: outcomes})
}

func (s *Server) writeModerationError(w http.ResponseWriter, id int64, err error) {
	switch {
	case errors.Is(err, store.ErrLocationNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "location not found"})
	case errors.Is(err, store.ErrInvalidTransition):
		// Surfaced so the caller can refresh stale UI state.
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrInvalidLocation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error().Err(err).Int64("location_id", id).Msg("moderation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// decodeOptionalBody tolerates an empty body (notes are optional) but rejects
// malformed JSON.
func decodeOptionalBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"platemap/internal/store"
)

type reviewRequest struct {
	Author  string `json:"author" validate:"required"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment"`
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: fieldErrors(err),
		})
		return
	}

	review, err := s.reviews.CreateReview(r.Context(), store.Review{
		LocationID: id,
		Author:     req.Author,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrLocationNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "location not found"})
		case errors.Is(err, store.ErrInvalidLocation):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			s.logger.Error().Err(err).Int64("location_id", id).Msg("create review failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	includeAll := r.URL.Query().Get("includeAll") == "true"
	reviews, err := s.reviews.ListReviews(r.Context(), id, includeAll)
	if err != nil {
		s.logger.Error().Err(err).Int64("location_id", id).Msg("list reviews failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Reviews []store.Review `json:"reviews"`
	}{Reviews: reviews})
}

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"platemap/internal/app/dedupe"
	"platemap/internal/app/intake"
	"platemap/internal/store"
)

type conflictResponse struct {
	Reason            string         `json:"reason"`
	SimilarLocations  []dedupe.Match `json:"similarLocations"`
	ModerationReasons []string       `json:"moderationReasons"`
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must contain only one JSON object"})
		return
	}

	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: fieldErrors(err),
		})
		return
	}

	outcome, err := s.intake.Submit(r.Context(), clientKey(r), req.toLocation())
	if err != nil {
		s.logger.Error().Err(err).Msg("submission failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	switch outcome.Kind {
	case intake.OutcomeRateLimited:
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many submissions, retry later"})
	case intake.OutcomeDuplicate:
		writeJSON(w, http.StatusConflict, conflictResponse{
			Reason:            outcome.Conflict.Reason,
			SimilarLocations:  outcome.Conflict.SimilarLocations,
			ModerationReasons: outcome.Conflict.ModerationReasons,
		})
	default:
		writeJSON(w, http.StatusCreated, outcome.Created)
	}
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	locations, err := s.locations.ListLocations(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("list locations failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Locations []store.Location `json:"locations"`
	}{Locations: locations})
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	loc, err := s.locations.GetLocation(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrLocationNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "location not found"})
			return
		}
		s.logger.Error().Err(err).Int64("location_id", id).Msg("get location failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleReEnrich(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	loc, err := s.intake.ReEnrich(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrLocationNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "location not found"})
			return
		}
		s.logger.Error().Err(err).Int64("location_id", id).Msg("re-enrichment failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, loc)
}

type enrichmentStatusResponse struct {
	HasRealData      bool       `json:"hasRealData"`
	Rating           *float64   `json:"rating,omitempty"`
	ReviewCount      *int       `json:"reviewCount,omitempty"`
	ImageCount       int        `json:"imageCount"`
	EnrichedAt       *time.Time `json:"enrichedAt,omitempty"`
	EnrichmentSource *string    `json:"enrichmentSource,omitempty"`
}

func (s *Server) handleEnrichmentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	loc, err := s.locations.GetLocation(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrLocationNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "location not found"})
			return
		}
		s.logger.Error().Err(err).Int64("location_id", id).Msg("enrichment status failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, enrichmentStatusResponse{
		HasRealData:      hasRealData(loc),
		Rating:           loc.Rating,
		ReviewCount:      loc.ReviewCount,
		ImageCount:       len(loc.Images),
		EnrichedAt:       loc.EnrichedAt,
		EnrichmentSource: loc.EnrichmentSource,
	})
}

// hasRealData reports whether enrichment produced substantive data: a
// positive rating, at least one non-placeholder image, and a review count.
func hasRealData(loc store.Location) bool {
	if loc.Rating == nil || *loc.Rating <= 0 {
		return false
	}
	if loc.ReviewCount == nil || *loc.ReviewCount <= 0 {
		return false
	}
	for _, img := range loc.Images {
		if !strings.Contains(img, "placeholder") {
			return true
		}
	}
	return false
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid location id"})
		return 0, false
	}
	return id, true
}

// clientKey identifies the submitter for rate limiting: the first
// X-Forwarded-For hop when present, otherwise the remote address.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

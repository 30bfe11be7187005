package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"platemap/internal/app/intake"
	"platemap/internal/app/moderation"
	"platemap/internal/store"
)

// IntakeService runs the submission pipeline.
type IntakeService interface {
	Submit(ctx context.Context, clientKey string, submission store.Location) (intake.Outcome, error)
	ReEnrich(ctx context.Context, id int64) (store.Location, error)
}

// LocationService exposes read access to stored locations.
type LocationService interface {
	GetLocation(ctx context.Context, id int64) (store.Location, error)
	ListLocations(ctx context.Context, filter store.LocationFilter) ([]store.Location, error)
}

// ModerationService applies moderator decisions.
type ModerationService interface {
	Approve(ctx context.Context, id int64, notes string) (store.Location, error)
	Reject(ctx context.Context, id int64, reason, notes string) (store.Location, error)
	BulkApprove(ctx context.Context, ids []int64, notes string) []moderation.Outcome
	BulkReject(ctx context.Context, ids []int64, reason, notes string) []moderation.Outcome
}

// ReviewService manages reviews owned by a location.
type ReviewService interface {
	CreateReview(ctx context.Context, review store.Review) (store.Review, error)
	ListReviews(ctx context.Context, locationID int64, includeAll bool) ([]store.Review, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	intake     IntakeService
	locations  LocationService
	moderation ModerationService
	reviews    ReviewService

	validate  *validator.Validate
	jwtSecret []byte
	logger    zerolog.Logger
}

// New configures a Server with the given services. The jwtSecret guards
// moderation endpoints; an empty secret disables them entirely.
func New(
	intakeSvc IntakeService,
	locations LocationService,
	moderationSvc ModerationService,
	reviews ReviewService,
	jwtSecret []byte,
	logger zerolog.Logger,
) *Server {
	return &Server{
		intake:     intakeSvc,
		locations:  locations,
		moderation: moderationSvc,
		reviews:    reviews,
		validate:   validator.New(),
		jwtSecret:  jwtSecret,
		logger:     logger,
	}
}

// Routes exposes the HTTP handlers for intake, listing, and moderation.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/locations", s.handleCreateLocation)
	mux.HandleFunc("GET /api/v1/locations", s.handleListLocations)
	mux.HandleFunc("GET /api/v1/locations/{id}", s.handleGetLocation)

	mux.HandleFunc("POST /api/v1/locations/{id}/enrich", s.handleReEnrich)
	mux.HandleFunc("GET /api/v1/locations/{id}/enrich", s.handleEnrichmentStatus)

	mux.Handle("POST /api/v1/locations/{id}/approve", s.requireModerator(s.handleApprove))
	mux.Handle("POST /api/v1/locations/{id}/reject", s.requireModerator(s.handleReject))
	mux.Handle("POST /api/v1/locations/bulk/approve", s.requireModerator(s.handleBulkApprove))
	mux.Handle("POST /api/v1/locations/bulk/reject", s.requireModerator(s.handleBulkReject))

	mux.HandleFunc("POST /api/v1/locations/{id}/reviews", s.handleCreateReview)
	mux.HandleFunc("GET /api/v1/locations/{id}/reviews", s.handleListReviews)

	return mux
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

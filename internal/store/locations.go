package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Moderation status of a location record.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Service types.
const (
	ServiceDineIn   = "dine-in"
	ServiceTakeaway = "takeaway"
	ServiceBoth     = "both"
)

// Weekdays is the canonical key set of every Hours map, in display order.
var Weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday",
	"friday", "saturday", "sunday",
}

// DayHours describes the opening window for a single weekday.
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	IsOpen bool   `json:"isOpen"`
}

// Location is a restaurant listing. Records enter as pending submissions and
// become publicly visible once approved.
type Location struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Description string   `json:"description,omitempty"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Cuisines    []string `json:"cuisines,omitempty"`
	ServiceType string   `json:"serviceType"`
	PriceRange  string   `json:"priceRange,omitempty"`

	Rating           *float64            `json:"rating,omitempty"`
	ReviewCount      *int                `json:"reviewCount,omitempty"`
	Images           []string            `json:"images,omitempty"`
	Hours            map[string]DayHours `json:"hours"`
	IsOpenNow        bool                `json:"isOpenNow"`
	Phone            *string             `json:"phone,omitempty"`
	Website          *string             `json:"website,omitempty"`
	EnrichedAt       *time.Time          `json:"enrichedAt,omitempty"`
	EnrichmentSource *string             `json:"enrichmentSource,omitempty"`

	Status          string     `json:"status"`
	DiscoverySource string     `json:"discoverySource"`
	ModerationNotes *string    `json:"moderationNotes,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	ModeratedAt     *time.Time `json:"moderatedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LocationFilter restricts ListLocations. Zero values mean "no restriction",
// except Status which defaults to approved-only unless IncludeAll is set.
type LocationFilter struct {
	Status      string
	IncludeAll  bool
	Search      string
	Cuisine     string
	ServiceType string
}

func validateLocation(loc Location) error {
	if strings.TrimSpace(loc.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLocation)
	}
	if strings.TrimSpace(loc.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidLocation)
	}
	if loc.Lat < -90 || loc.Lat > 90 {
		return fmt.Errorf("%w: latitude must be within [-90, 90]", ErrInvalidLocation)
	}
	if loc.Lng < -180 || loc.Lng > 180 {
		return fmt.Errorf("%w: longitude must be within [-180, 180]", ErrInvalidLocation)
	}
	switch loc.ServiceType {
	case "", ServiceDineIn, ServiceTakeaway, ServiceBoth:
	default:
		return fmt.Errorf("%w: unknown service type %q", ErrInvalidLocation, loc.ServiceType)
	}
	switch loc.PriceRange {
	case "", "$", "$$", "$$$", "$$$$":
	default:
		return fmt.Errorf("%w: unknown price range %q", ErrInvalidLocation, loc.PriceRange)
	}
	return nil
}

// normalizeLocation trims free-text fields and guarantees the invariants the
// rest of the system relies on: a complete hours map and deduplicated images.
func normalizeLocation(loc Location) Location {
	loc.Name = strings.TrimSpace(loc.Name)
	loc.Address = strings.TrimSpace(loc.Address)
	loc.Description = strings.TrimSpace(loc.Description)
	if loc.ServiceType == "" {
		loc.ServiceType = ServiceBoth
	}
	if loc.DiscoverySource == "" {
		loc.DiscoverySource = "user-submitted"
	}
	loc.Hours = CompleteHours(loc.Hours)
	loc.Images = DedupeImages(loc.Images)
	return loc
}

// CompleteHours returns a copy of hours carrying exactly the seven canonical
// weekday keys, filling gaps from the default schedule.
func CompleteHours(hours map[string]DayHours) map[string]DayHours {
	out := make(map[string]DayHours, len(Weekdays))
	for _, day := range Weekdays {
		if h, ok := hours[day]; ok {
			out[day] = h
			continue
		}
		out[day] = DefaultDayHours(day)
	}
	return out
}

// DefaultDayHours is the fallback schedule used when no source ever supplied
// opening hours for a day. Defaulted days are marked closed.
func DefaultDayHours(day string) DayHours {
	switch day {
	case "saturday":
		return DayHours{Open: "09:00", Close: "19:00"}
	case "sunday":
		return DayHours{Open: "10:00", Close: "18:00"}
	default:
		return DayHours{Open: "08:00", Close: "20:00"}
	}
}

// DedupeImages preserves first-seen order while dropping repeated URLs.
func DedupeImages(images []string) []string {
	if len(images) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(images))
	out := make([]string, 0, len(images))
	for _, u := range images {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// CreateLocation persists a new location with status pending.
func (s *Store) CreateLocation(ctx context.Context, loc Location) (Location, error) {
	loc = normalizeLocation(loc)
	if err := validateLocation(loc); err != nil {
		return Location{}, err
	}

	cuisines, err := json.Marshal(loc.Cuisines)
	if err != nil {
		return Location{}, fmt.Errorf("marshal cuisines: %w", err)
	}
	images, err := json.Marshal(loc.Images)
	if err != nil {
		return Location{}, fmt.Errorf("marshal images: %w", err)
	}
	hours, err := json.Marshal(loc.Hours)
	if err != nil {
		return Location{}, fmt.Errorf("marshal hours: %w", err)
	}

	loc.Status = StatusPending

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO locations (
			name, address, description, lat, lng,
			cuisines, service_type, price_range,
			rating, review_count, images, hours, is_open_now,
			phone, website, enriched_at, enrichment_source,
			status, discovery_source
		)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10, $11::jsonb, $12::jsonb, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at
	`,
		loc.Name, loc.Address, loc.Description, loc.Lat, loc.Lng,
		string(cuisines), loc.ServiceType, loc.PriceRange,
		loc.Rating, loc.ReviewCount, string(images), string(hours), loc.IsOpenNow,
		loc.Phone, loc.Website, loc.EnrichedAt, loc.EnrichmentSource,
		loc.Status, loc.DiscoverySource,
	).Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return Location{}, fmt.Errorf("insert location: %w", err)
	}

	return loc, nil
}

const locationColumns = `
	id, name, address, description, lat, lng,
	cuisines, service_type, price_range,
	rating, review_count, images, hours, is_open_now,
	phone, website, enriched_at, enrichment_source,
	status, discovery_source, moderation_notes, rejection_reason, moderated_at,
	created_at, updated_at`

func scanLocation(row interface{ Scan(...any) error }) (Location, error) {
	var (
		loc      Location
		cuisines []byte
		images   []byte
		hours    []byte
	)
	err := row.Scan(
		&loc.ID, &loc.Name, &loc.Address, &loc.Description, &loc.Lat, &loc.Lng,
		&cuisines, &loc.ServiceType, &loc.PriceRange,
		&loc.Rating, &loc.ReviewCount, &images, &hours, &loc.IsOpenNow,
		&loc.Phone, &loc.Website, &loc.EnrichedAt, &loc.EnrichmentSource,
		&loc.Status, &loc.DiscoverySource, &loc.ModerationNotes, &loc.RejectionReason, &loc.ModeratedAt,
		&loc.CreatedAt, &loc.UpdatedAt,
	)
	if err != nil {
		return Location{}, err
	}

	if len(cuisines) > 0 {
		if err := json.Unmarshal(cuisines, &loc.Cuisines); err != nil {
			return Location{}, fmt.Errorf("unmarshal cuisines: %w", err)
		}
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &loc.Images); err != nil {
			return Location{}, fmt.Errorf("unmarshal images: %w", err)
		}
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &loc.Hours); err != nil {
			return Location{}, fmt.Errorf("unmarshal hours: %w", err)
		}
	}
	loc.Hours = CompleteHours(loc.Hours)

	return loc, nil
}

// GetLocation retrieves a single location by ID.
func (s *Store) GetLocation(ctx context.Context, id int64) (Location, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+locationColumns+`
		FROM locations
		WHERE id = $1
	`, id)

	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Location{}, ErrLocationNotFound
	}
	if err != nil {
		return Location{}, fmt.Errorf("select location: %w", err)
	}
	return loc, nil
}

// ListLocations returns locations matching the filter, newest first.
// Without an explicit status (and without IncludeAll) only approved records
// are returned, since those are the publicly visible ones.
func (s *Store) ListLocations(ctx context.Context, filter LocationFilter) ([]Location, error) {
	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case filter.Status != "":
		conds = append(conds, "status = "+arg(filter.Status))
	case !filter.IncludeAll:
		conds = append(conds, "status = "+arg(StatusApproved))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, "(name ILIKE "+p+" OR address ILIKE "+p+")")
	}
	if filter.Cuisine != "" {
		conds = append(conds, "cuisines @> "+arg(fmt.Sprintf(`["%s"]`, filter.Cuisine))+"::jsonb")
	}
	if filter.ServiceType != "" {
		conds = append(conds, "service_type = "+arg(filter.ServiceType))
	}

	query := `SELECT` + locationColumns + `
		FROM locations`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\t\tORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, loc)
	}

	return locations, rows.Err()
}

// UpdateEnrichment replaces the enrichment-derived fields of a record.
// Coordinates are only written when the update carries verified third-party
// values; identity and workflow fields are untouched.
func (s *Store) UpdateEnrichment(ctx context.Context, id int64, loc Location) error {
	loc.Hours = CompleteHours(loc.Hours)
	loc.Images = DedupeImages(loc.Images)

	images, err := json.Marshal(loc.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	hours, err := json.Marshal(loc.Hours)
	if err != nil {
		return fmt.Errorf("marshal hours: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE locations
		SET rating = $1, review_count = $2, images = $3::jsonb, hours = $4::jsonb,
		    is_open_now = $5, phone = $6, website = $7, price_range = $8,
		    service_type = $9, enriched_at = $10, enrichment_source = $11,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $12
	`,
		loc.Rating, loc.ReviewCount, string(images), string(hours),
		loc.IsOpenNow, loc.Phone, loc.Website, loc.PriceRange,
		loc.ServiceType, loc.EnrichedAt, loc.EnrichmentSource,
		id,
	)
	if err != nil {
		return fmt.Errorf("update enrichment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// TransitionStatus moves a pending record to the target status, recording the
// moderation audit fields. The WHERE clause enforces monotonicity: a record
// that already left pending is never updated.
func (s *Store) TransitionStatus(ctx context.Context, id int64, target string, notes, reason *string, at time.Time) error {
	if target != StatusApproved && target != StatusRejected {
		return fmt.Errorf("%w: cannot transition to %q", ErrInvalidTransition, target)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE locations
		SET status = $1, moderation_notes = $2, rejection_reason = $3,
		    moderated_at = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5 AND status = $6
	`, target, notes, reason, at, id, StatusPending)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// No row moved: either the record is missing or it already left pending.
	var current string
	err = s.db.QueryRowContext(ctx, `
		SELECT status
		FROM locations
		WHERE id = $1
	`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLocationNotFound
	}
	if err != nil {
		return fmt.Errorf("select status: %w", err)
	}
	return fmt.Errorf("%w: record is %s", ErrInvalidTransition, current)
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestValidateLocation(t *testing.T) {
	tests := []struct {
		name    string
		loc     Location
		wantErr bool
	}{
		{
			name: "valid location",
			loc: Location{
				Name:        "Mama Cass Amala",
				Address:     "12 Allen Avenue, Ikeja",
				Lat:         6.6018,
				Lng:         3.3515,
				ServiceType: ServiceBoth,
				PriceRange:  "$$",
			},
		},
		{
			name: "missing name",
			loc: Location{
				Address: "12 Allen Avenue, Ikeja",
			},
			wantErr: true,
		},
		{
			name: "missing address",
			loc: Location{
				Name: "Mama Cass Amala",
			},
			wantErr: true,
		},
		{
			name: "latitude out of range",
			loc: Location{
				Name:    "Somewhere",
				Address: "Nowhere",
				Lat:     91,
			},
			wantErr: true,
		},
		{
			name: "longitude out of range",
			loc: Location{
				Name:    "Somewhere",
				Address: "Nowhere",
				Lng:     -200,
			},
			wantErr: true,
		},
		{
			name: "unknown service type",
			loc: Location{
				Name:        "Somewhere",
				Address:     "Nowhere",
				ServiceType: "drive-through",
			},
			wantErr: true,
		},
		{
			name: "unknown price range",
			loc: Location{
				Name:       "Somewhere",
				Address:    "Nowhere",
				PriceRange: "$$$$$",
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := validateLocation(tc.loc)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error but got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected nil error but got %v", err)
			}
			if tc.wantErr && !errors.Is(err, ErrInvalidLocation) {
				t.Fatalf("expected ErrInvalidLocation, got %v", err)
			}
		})
	}
}

func TestCreateLocationSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	hours, err := json.Marshal(CompleteHours(nil))
	if err != nil {
		t.Fatalf("marshal hours: %v", err)
	}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO locations (
			name, address, description, lat, lng,
			cuisines, service_type, price_range,
			rating, review_count, images, hours, is_open_now,
			phone, website, enriched_at, enrichment_source,
			status, discovery_source
		)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10, $11::jsonb, $12::jsonb, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at
	`)).
		WithArgs(
			"Mama Cass Amala", "12 Allen Avenue, Ikeja", "Home-style amala", 6.6018, 3.3515,
			`["nigerian"]`, ServiceBoth, "$",
			nil, nil, `["https://img.example/1.jpg"]`, string(hours), false,
			nil, nil, nil, nil,
			StatusPending, "user-submitted",
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	got, err := s.CreateLocation(context.Background(), Location{
		Name:        "  Mama Cass Amala ",
		Address:     " 12 Allen Avenue, Ikeja  ",
		Description: "Home-style amala",
		Lat:         6.6018,
		Lng:         3.3515,
		Cuisines:    []string{"nigerian"},
		PriceRange:  "$",
		Images:      []string{" https://img.example/1.jpg ", "https://img.example/1.jpg"},
	})
	if err != nil {
		t.Fatalf("CreateLocation error: %v", err)
	}

	if got.ID != 7 {
		t.Fatalf("expected location ID 7, got %d", got.ID)
	}
	if got.Name != "Mama Cass Amala" || got.Address != "12 Allen Avenue, Ikeja" {
		t.Fatalf("expected trimmed name/address, got %q / %q", got.Name, got.Address)
	}
	if got.Status != StatusPending {
		t.Fatalf("expected pending status, got %q", got.Status)
	}
	if len(got.Hours) != 7 {
		t.Fatalf("expected a complete hours map, got %d keys", len(got.Hours))
	}
	if len(got.Images) != 1 {
		t.Fatalf("expected deduplicated images, got %v", got.Images)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateLocationInvalid(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	_, err = s.CreateLocation(context.Background(), Location{
		Name:    "Somewhere",
		Address: "Nowhere",
		Lat:     120,
	})
	if !errors.Is(err, ErrInvalidLocation) {
		t.Fatalf("expected ErrInvalidLocation, got %v", err)
	}
}

func TestGetLocationNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT` + locationColumns + `
		FROM locations
		WHERE id = $1
	`)).
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	_, err = s.GetLocation(context.Background(), 999)
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func locationRowColumns() []string {
	return []string{
		"id", "name", "address", "description", "lat", "lng",
		"cuisines", "service_type", "price_range",
		"rating", "review_count", "images", "hours", "is_open_now",
		"phone", "website", "enriched_at", "enrichment_source",
		"status", "discovery_source", "moderation_notes", "rejection_reason", "moderated_at",
		"created_at", "updated_at",
	}
}

func TestGetLocationScansJSONColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT` + locationColumns + `
		FROM locations
		WHERE id = $1
	`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(locationRowColumns()).AddRow(
			int64(1), "Mama Cass Amala", "12 Allen Avenue, Ikeja", "", 6.6018, 3.3515,
			`["nigerian","west-african"]`, ServiceBoth, "$",
			nil, nil, `["https://img.example/1.jpg"]`, `{"monday":{"open":"08:00","close":"20:00","isOpen":true}}`, true,
			nil, nil, nil, nil,
			StatusApproved, "user-submitted", nil, nil, nil,
			now, now,
		))

	loc, err := s.GetLocation(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetLocation error: %v", err)
	}

	if len(loc.Cuisines) != 2 || loc.Cuisines[0] != "nigerian" {
		t.Fatalf("unexpected cuisines: %v", loc.Cuisines)
	}
	if len(loc.Hours) != 7 {
		t.Fatalf("expected hours filled out to 7 days, got %d keys", len(loc.Hours))
	}
	if !loc.Hours["monday"].IsOpen {
		t.Fatalf("stored monday hours should survive the scan: %+v", loc.Hours["monday"])
	}
	if loc.Hours["sunday"].IsOpen {
		t.Fatalf("defaulted days must be closed: %+v", loc.Hours["sunday"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListLocationsDefaultsToApproved(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`+locationColumns+`
		FROM locations
		WHERE status = $1
		ORDER BY created_at DESC
	`)).
		WithArgs(StatusApproved).
		WillReturnRows(sqlmock.NewRows(locationRowColumns()).AddRow(
			int64(1), "Mama Cass Amala", "12 Allen Avenue, Ikeja", "", 6.6018, 3.3515,
			`[]`, ServiceBoth, "$",
			nil, nil, `[]`, `{}`, false,
			nil, nil, nil, nil,
			StatusApproved, "user-submitted", nil, nil, nil,
			now, now,
		))

	locations, err := s.ListLocations(context.Background(), LocationFilter{})
	if err != nil {
		t.Fatalf("ListLocations error: %v", err)
	}

	if len(locations) != 1 || locations[0].Name != "Mama Cass Amala" {
		t.Fatalf("unexpected locations: %#v", locations)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListLocationsWithFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`+locationColumns+`
		FROM locations
		WHERE status = $1 AND (name ILIKE $2 OR address ILIKE $2) AND cuisines @> $3::jsonb AND service_type = $4
		ORDER BY created_at DESC
	`)).
		WithArgs(StatusPending, "%amala%", `["nigerian"]`, ServiceTakeaway).
		WillReturnRows(sqlmock.NewRows(locationRowColumns()))

	locations, err := s.ListLocations(context.Background(), LocationFilter{
		Status:      StatusPending,
		Search:      "amala",
		Cuisine:     "nigerian",
		ServiceType: ServiceTakeaway,
	})
	if err != nil {
		t.Fatalf("ListLocations error: %v", err)
	}
	if len(locations) != 0 {
		t.Fatalf("expected no rows, got %d", len(locations))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListLocationsIncludeAllHasNoStatusClause(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT` + locationColumns + `
		FROM locations
		ORDER BY created_at DESC
	`)).
		WillReturnRows(sqlmock.NewRows(locationRowColumns()))

	if _, err := s.ListLocations(context.Background(), LocationFilter{IncludeAll: true}); err != nil {
		t.Fatalf("ListLocations error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateEnrichmentNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE locations
		SET rating = $1, review_count = $2, images = $3::jsonb, hours = $4::jsonb,
		    is_open_now = $5, phone = $6, website = $7, price_range = $8,
		    service_type = $9, enriched_at = $10, enrichment_source = $11,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $12
	`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = s.UpdateEnrichment(context.Background(), 404, Location{})
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransitionStatusApprovesPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	notes := "verified by phone"
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE locations
		SET status = $1, moderation_notes = $2, rejection_reason = $3,
		    moderated_at = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5 AND status = $6
	`)).
		WithArgs(StatusApproved, &notes, nil, at, int64(1), StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.TransitionStatus(context.Background(), 1, StatusApproved, &notes, nil, at); err != nil {
		t.Fatalf("TransitionStatus error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransitionStatusAlreadyModerated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE locations
		SET status = $1, moderation_notes = $2, rejection_reason = $3,
		    moderated_at = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5 AND status = $6
	`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT status
		FROM locations
		WHERE id = $1
	`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusRejected))

	err = s.TransitionStatus(context.Background(), 1, StatusApproved, nil, nil, at)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransitionStatusMissingRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE locations
		SET status = $1, moderation_notes = $2, rejection_reason = $3,
		    moderated_at = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5 AND status = $6
	`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT status
		FROM locations
		WHERE id = $1
	`)).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	err = s.TransitionStatus(context.Background(), 404, StatusRejected, nil, nil, time.Now())
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransitionStatusRejectsUnknownTarget(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	err = s.TransitionStatus(context.Background(), 1, StatusPending, nil, nil, time.Now())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

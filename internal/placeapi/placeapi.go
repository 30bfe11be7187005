// Package placeapi wraps a third-party place search/details capability.
// It is a pure adapter: no business logic, no merge policy.
package placeapi

import (
	"context"
	"time"
)

// OpeningPeriod is one (day, open/close time) pair from the provider.
// Day indexes are 0-6 with 0 = Sunday. Times arrive either as a compact
// "HHMM" string or as split hour/minute fields depending on the endpoint.
type OpeningPeriod struct {
	OpenDay     int
	OpenTime    string
	OpenHour    *int
	OpenMinute  *int
	CloseDay    int
	CloseTime   string
	CloseHour   *int
	CloseMinute *int
}

// Details is the normalized shape of a third-party place record.
type Details struct {
	PlaceID     string
	Name        string
	Address     string
	Lat         *float64
	Lng         *float64
	Rating      *float64
	ReviewCount *int
	Phone       string
	Website     string
	PriceLevel  string
	Types       []string
	PhotoURLs   []string
	OpenNow     *bool
	Periods     []OpeningPeriod
}

// Client is the lookup contract the pipeline depends on.
type Client interface {
	// Enabled reports whether the client holds credentials. A disabled
	// client degrades the pipeline to the no-enrichment path.
	Enabled() bool

	// FindPlace searches for the place best matching a name and address.
	// A nil result with nil error means no confident match was found.
	FindPlace(ctx context.Context, name, address string) (*Details, error)

	// Details fetches the full record for a known place ID.
	Details(ctx context.Context, placeID string) (*Details, error)
}

// Config holds client settings.
type Config struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	MaxRetries     int
}

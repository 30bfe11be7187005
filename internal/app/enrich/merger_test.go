package enrich

import (
	"reflect"
	"testing"

	"platemap/internal/placeapi"
	"platemap/internal/store"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }

func baseSubmission() store.Location {
	return store.Location{
		Name:    "Mama Cass Amala",
		Address: "12 Allen Ave, Ikeja",
		Lat:     6.6018,
		Lng:     3.3515,
	}
}

func TestMergeNilDetailsReturnsSubmission(t *testing.T) {
	sub := baseSubmission()
	merged := Merge(sub, nil)

	if merged.Name != sub.Name || merged.Address != sub.Address {
		t.Fatalf("nil details must not change submission fields")
	}
	if merged.Lat != sub.Lat || merged.Lng != sub.Lng {
		t.Fatalf("nil details must not change coordinates")
	}
	if merged.Rating != nil || merged.Phone != nil {
		t.Fatalf("nil details must not invent enrichment data")
	}
	if len(merged.Hours) != 7 {
		t.Fatalf("hours map must always carry 7 weekdays, got %d", len(merged.Hours))
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	details := &placeapi.Details{
		Rating:      floatPtr(4.4),
		ReviewCount: intPtr(212),
		Phone:       "0802 123 4567",
		Website:     "https://mamacass.example",
		PriceLevel:  "PRICE_LEVEL_MODERATE",
		Types:       []string{"restaurant"},
		PhotoURLs:   []string{"https://img.example/a.jpg", "https://img.example/b.jpg"},
		OpenNow:     boolPtr(true),
		Periods: []placeapi.OpeningPeriod{
			{OpenDay: 1, OpenHour: intPtr(8), OpenMinute: intPtr(0), CloseHour: intPtr(20), CloseMinute: intPtr(30)},
		},
	}

	first := Merge(baseSubmission(), details)
	second := Merge(baseSubmission(), details)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("merge must be deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestMergeCoordinatePrecedence(t *testing.T) {
	details := &placeapi.Details{Lat: floatPtr(6.7), Lng: floatPtr(3.4)}

	// User-supplied pin wins.
	merged := Merge(baseSubmission(), details)
	if merged.Lat != 6.6018 || merged.Lng != 3.3515 {
		t.Fatalf("details must not override user coordinates, got (%f, %f)", merged.Lat, merged.Lng)
	}

	// Absent base coordinates are filled.
	sub := baseSubmission()
	sub.Lat, sub.Lng = 0, 0
	merged = Merge(sub, details)
	if merged.Lat != 6.7 || merged.Lng != 3.4 {
		t.Fatalf("details should fill absent coordinates, got (%f, %f)", merged.Lat, merged.Lng)
	}
}

func TestMergeRatingAlwaysWins(t *testing.T) {
	sub := baseSubmission()
	sub.Rating = floatPtr(3.0)
	sub.ReviewCount = intPtr(5)

	merged := Merge(sub, &placeapi.Details{Rating: floatPtr(4.6), ReviewCount: intPtr(890)})
	if merged.Rating == nil || *merged.Rating != 4.6 {
		t.Fatalf("overlay rating should win, got %v", merged.Rating)
	}
	if merged.ReviewCount == nil || *merged.ReviewCount != 890 {
		t.Fatalf("overlay review count should win, got %v", merged.ReviewCount)
	}

	// Absent overlay keeps the base values.
	merged = Merge(sub, &placeapi.Details{})
	if merged.Rating == nil || *merged.Rating != 3.0 {
		t.Fatalf("absent overlay rating should keep base, got %v", merged.Rating)
	}
}

func TestMergeImagesAppendedAndDeduped(t *testing.T) {
	sub := baseSubmission()
	sub.Images = []string{"https://img.example/a.jpg"}

	merged := Merge(sub, &placeapi.Details{PhotoURLs: []string{
		"https://img.example/a.jpg",
		"https://img.example/b.jpg",
		"https://img.example/b.jpg",
	}})

	want := []string{"https://img.example/a.jpg", "https://img.example/b.jpg"}
	if !reflect.DeepEqual(merged.Images, want) {
		t.Fatalf("expected %v, got %v", want, merged.Images)
	}
}

func TestMergePriceLadder(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{"PRICE_LEVEL_FREE", "$"},
		{"PRICE_LEVEL_INEXPENSIVE", "$"},
		{"PRICE_LEVEL_MODERATE", "$$"},
		{"PRICE_LEVEL_EXPENSIVE", "$$$"},
		{"PRICE_LEVEL_VERY_EXPENSIVE", "$$$$"},
		{"SOMETHING_NEW", "$$$$"},
	}
	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			merged := Merge(baseSubmission(), &placeapi.Details{PriceLevel: tc.level})
			if merged.PriceRange != tc.want {
				t.Fatalf("price level %s: expected %q, got %q", tc.level, tc.want, merged.PriceRange)
			}
		})
	}

	// Unspecified keeps the base value.
	sub := baseSubmission()
	sub.PriceRange = "$$"
	merged := Merge(sub, &placeapi.Details{PriceLevel: "PRICE_LEVEL_UNSPECIFIED"})
	if merged.PriceRange != "$$" {
		t.Fatalf("unspecified price level should keep base, got %q", merged.PriceRange)
	}
}

func TestMergeServiceType(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  string
	}{
		{"takeaway only", []string{"meal_takeaway"}, store.ServiceTakeaway},
		{"delivery only", []string{"meal_delivery"}, store.ServiceTakeaway},
		{"restaurant alone prefers both", []string{"restaurant"}, store.ServiceBoth},
		{"restaurant with takeaway", []string{"restaurant", "meal_takeaway"}, store.ServiceBoth},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			merged := Merge(baseSubmission(), &placeapi.Details{Types: tc.types})
			if merged.ServiceType != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, merged.ServiceType)
			}
		})
	}

	// No tags keeps the base value.
	sub := baseSubmission()
	sub.ServiceType = store.ServiceDineIn
	merged := Merge(sub, &placeapi.Details{Types: []string{"point_of_interest"}})
	if merged.ServiceType != store.ServiceDineIn {
		t.Fatalf("expected base service type kept, got %q", merged.ServiceType)
	}
}

func TestMergeOpenNow(t *testing.T) {
	sub := baseSubmission()
	sub.IsOpenNow = true

	merged := Merge(sub, &placeapi.Details{OpenNow: boolPtr(false)})
	if merged.IsOpenNow {
		t.Fatalf("overlay open flag should win")
	}

	merged = Merge(sub, &placeapi.Details{})
	if !merged.IsOpenNow {
		t.Fatalf("absent overlay flag should keep base")
	}
}

func TestMergeHoursCompleteness(t *testing.T) {
	cases := []*placeapi.Details{
		nil,
		{},
		{Periods: []placeapi.OpeningPeriod{
			{OpenDay: 2, OpenHour: intPtr(9), OpenMinute: intPtr(30), CloseHour: intPtr(21), CloseMinute: intPtr(0)},
		}},
	}
	for _, details := range cases {
		merged := Merge(baseSubmission(), details)
		if len(merged.Hours) != 7 {
			t.Fatalf("expected 7 weekday keys, got %d", len(merged.Hours))
		}
		for _, day := range store.Weekdays {
			if _, ok := merged.Hours[day]; !ok {
				t.Fatalf("missing weekday %q", day)
			}
		}
	}
}

func TestMergeHoursReplaceBase(t *testing.T) {
	sub := baseSubmission()
	sub.Hours = map[string]store.DayHours{
		"monday": {Open: "11:00", Close: "15:00", IsOpen: true},
	}

	merged := Merge(sub, &placeapi.Details{Periods: []placeapi.OpeningPeriod{
		{OpenDay: 1, OpenHour: intPtr(8), OpenMinute: intPtr(0), CloseHour: intPtr(20), CloseMinute: intPtr(0)},
	}})

	if got := merged.Hours["monday"]; got.Open != "08:00" || got.Close != "20:00" || !got.IsOpen {
		t.Fatalf("overlay periods should fully replace base hours, got %+v", got)
	}
	// Days the overlay did not cover fall back to the default schedule.
	if got := merged.Hours["tuesday"]; got.IsOpen {
		t.Fatalf("uncovered day should be marked closed, got %+v", got)
	}
}

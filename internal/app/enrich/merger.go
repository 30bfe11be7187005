// Package enrich combines a validated submission with authoritative
// third-party place data into a canonical location record.
package enrich

import (
	"strings"

	"platemap/internal/placeapi"
	"platemap/internal/store"
)

// Merge overlays third-party details onto a submission. The submission is the
// base; details, when present, supply authoritative overlays per field.
// Merging is deterministic: the same inputs always produce the same output.
// EnrichedAt is stamped by the orchestrator, not here.
//
// A nil details means the lookup failed or returned nothing; enrichment is
// best-effort, so the submission comes back with only its invariants
// (complete hours map, deduplicated images) applied.
func Merge(base store.Location, details *placeapi.Details) store.Location {
	base.Hours = store.CompleteHours(base.Hours)
	base.Images = store.DedupeImages(base.Images)
	if details == nil {
		return base
	}

	// User-supplied pin takes precedence; details only fill an absent one.
	if base.Lat == 0 && base.Lng == 0 && details.Lat != nil && details.Lng != nil {
		base.Lat = *details.Lat
		base.Lng = *details.Lng
	}

	if details.Phone != "" {
		phone := details.Phone
		base.Phone = &phone
	}
	if details.Website != "" {
		website := details.Website
		base.Website = &website
	}

	// Third-party ratings are considered more current than anything the
	// submitter supplied.
	if details.Rating != nil {
		rating := *details.Rating
		base.Rating = &rating
	}
	if details.ReviewCount != nil {
		count := *details.ReviewCount
		base.ReviewCount = &count
	}

	if len(details.PhotoURLs) > 0 {
		base.Images = store.DedupeImages(append(base.Images, details.PhotoURLs...))
	}

	if len(details.Periods) > 0 {
		base.Hours = ParseHours(details.Periods)
	}

	if price := mapPriceLevel(details.PriceLevel); price != "" {
		base.PriceRange = price
	}

	if service := inferServiceType(details.Types); service != "" {
		base.ServiceType = service
	}

	if details.OpenNow != nil {
		base.IsOpenNow = *details.OpenNow
	}

	return base
}

// mapPriceLevel translates the provider's price-level enum through a fixed
// ladder. Unknown non-empty levels land on the most expensive tier.
func mapPriceLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "", "PRICE_LEVEL_UNSPECIFIED":
		return ""
	case "PRICE_LEVEL_FREE", "FREE", "PRICE_LEVEL_INEXPENSIVE", "INEXPENSIVE":
		return "$"
	case "PRICE_LEVEL_MODERATE", "MODERATE":
		return "$$"
	case "PRICE_LEVEL_EXPENSIVE", "EXPENSIVE":
		return "$$$"
	default:
		return "$$$$"
	}
}

// inferServiceType reads the provider's category tags. A takeaway or delivery
// tag without a restaurant tag means takeaway-only; a restaurant tag prefers
// "both" since the tags rarely distinguish dine-in-only places.
func inferServiceType(types []string) string {
	var takeaway, restaurant bool
	for _, t := range types {
		t = strings.ToLower(t)
		if strings.Contains(t, "takeaway") || strings.Contains(t, "delivery") {
			takeaway = true
		}
		if strings.Contains(t, "restaurant") {
			restaurant = true
		}
	}
	switch {
	case restaurant:
		return store.ServiceBoth
	case takeaway:
		return store.ServiceTakeaway
	default:
		return ""
	}
}

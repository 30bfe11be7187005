package dedupe

import (
	"fmt"
	"sort"

	"platemap/internal/store"
)

// Candidate carries the submission fields relevant to duplicate detection.
// Coordinates are required; schema validation upstream rejects submissions
// without them before this component runs.
type Candidate struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
}

// Match pairs a corpus record with its composite similarity score.
type Match struct {
	Location store.Location `json:"location"`
	Score    float64        `json:"score"`
}

// Result is the outcome of scoring one candidate against the corpus.
type Result struct {
	IsDuplicate       bool     `json:"isDuplicate"`
	Reason            string   `json:"reason,omitempty"`
	SimilarLocations  []Match  `json:"similarLocations"`
	ModerationReasons []string `json:"moderationReasons"`
}

// Detector scores candidates with a weighted blend of geographic, name, and
// address similarity. Geography is weighted highest: two genuinely different
// businesses rarely share a precise location.
type Detector struct {
	// InnerRadiusMeters earns full proximity score; beyond OuterRadiusMeters
	// the geographic signal is zero.
	InnerRadiusMeters float64
	OuterRadiusMeters float64

	GeoWeight     float64
	NameWeight    float64
	AddressWeight float64

	// Threshold a composite score must exceed to be treated as a match.
	Threshold float64
	// ReviewMargin below Threshold still surfaces matches for human review.
	ReviewMargin float64
	// MinNameSimilarity guards against auto-rejecting a different tenant at
	// the same coordinates (a shared building is not a duplicate).
	MinNameSimilarity float64
}

// New returns a Detector with the production scoring profile.
func New() *Detector {
	return &Detector{
		InnerRadiusMeters: 25,
		OuterRadiusMeters: 300,
		GeoWeight:         0.5,
		NameWeight:        0.3,
		AddressWeight:     0.2,
		Threshold:         0.75,
		ReviewMargin:      0.15,
		MinNameSimilarity: 0.5,
	}
}

// Detect scores the candidate against every corpus record. Corpus entries it
// cannot score (blank name and address, unusable coordinates) are skipped,
// never raised; entries without coordinates are still compared on text.
func (d *Detector) Detect(candidate Candidate, corpus []store.Location) Result {
	result := Result{
		SimilarLocations:  []Match{},
		ModerationReasons: []string{},
	}
	if len(corpus) == 0 {
		return result
	}

	candName := normalize(candidate.Name)
	candAddr := normalize(candidate.Address)

	type scored struct {
		match    Match
		nameSim  float64
		geoScore float64
	}

	var candidates []scored
	for _, record := range corpus {
		nameSim := textSimilarity(candName, normalize(record.Name))
		addrSim := textSimilarity(candAddr, normalize(record.Address))

		geoScore := 0.0
		hasGeo := validCoordinates(record.Lat, record.Lng)
		if hasGeo {
			dist := haversineMeters(candidate.Lat, candidate.Lng, record.Lat, record.Lng)
			geoScore = proximityScore(dist, d.InnerRadiusMeters, d.OuterRadiusMeters)
		}

		if nameSim == 0 && addrSim == 0 && !hasGeo {
			continue
		}

		var composite float64
		if hasGeo {
			composite = d.GeoWeight*geoScore + d.NameWeight*nameSim + d.AddressWeight*addrSim
		} else {
			// Re-weight over the signals we actually have.
			total := d.NameWeight + d.AddressWeight
			composite = (d.NameWeight*nameSim + d.AddressWeight*addrSim) / total
		}

		if composite >= d.Threshold-d.ReviewMargin {
			candidates = append(candidates, scored{
				match:    Match{Location: record, Score: composite},
				nameSim:  nameSim,
				geoScore: geoScore,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].match.Score != candidates[j].match.Score {
			return candidates[i].match.Score > candidates[j].match.Score
		}
		// Tie-break on name similarity: geographic coincidence alone must
		// not outrank a same-named record.
		return candidates[i].nameSim > candidates[j].nameSim
	})

	for _, c := range candidates {
		result.SimilarLocations = append(result.SimilarLocations, c.match)
	}

	for _, c := range candidates {
		if c.match.Score < d.Threshold {
			continue
		}
		if c.nameSim < d.MinNameSimilarity {
			result.ModerationReasons = append(result.ModerationReasons, fmt.Sprintf(
				"%q shares a location with the submission but its name differs; flagged for manual review",
				c.match.Location.Name,
			))
			continue
		}
		if !result.IsDuplicate {
			result.IsDuplicate = true
			result.Reason = fmt.Sprintf(
				"matches existing %s record %q (score %.2f)",
				c.match.Location.Status, c.match.Location.Name, c.match.Score,
			)
		}
		result.ModerationReasons = append(result.ModerationReasons, fmt.Sprintf(
			"name and location both within tolerance of existing %s record %q",
			c.match.Location.Status, c.match.Location.Name,
		))
	}

	if !result.IsDuplicate && len(result.SimilarLocations) > 0 {
		result.ModerationReasons = append(result.ModerationReasons,
			"similar records found below the duplicate threshold; worth a second look")
	}

	return result
}

func validCoordinates(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

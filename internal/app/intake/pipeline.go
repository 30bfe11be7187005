// Package intake sequences one submission through rate limiting, duplicate
// detection, best-effort enrichment, and persistence.
package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"platemap/internal/analytics"
	"platemap/internal/app/dedupe"
	"platemap/internal/app/enrich"
	"platemap/internal/placeapi"
	"platemap/internal/ratelimit"
	"platemap/internal/store"
)

// Repository is the persistence surface the pipeline needs.
type Repository interface {
	ListLocations(ctx context.Context, filter store.LocationFilter) ([]store.Location, error)
	CreateLocation(ctx context.Context, loc store.Location) (store.Location, error)
	GetLocation(ctx context.Context, id int64) (store.Location, error)
	UpdateEnrichment(ctx context.Context, id int64, loc store.Location) error
}

// Detector scores a candidate against the corpus.
type Detector interface {
	Detect(candidate dedupe.Candidate, corpus []store.Location) dedupe.Result
}

// Limiter guards the intake endpoint.
type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

// OutcomeKind tags the result of a submission. Duplicates and rate limits are
// business outcomes, not errors.
type OutcomeKind int

const (
	OutcomeCreated OutcomeKind = iota
	OutcomeDuplicate
	OutcomeRateLimited
)

// Outcome is the tagged result of one submission.
type Outcome struct {
	Kind      OutcomeKind
	Created   *store.Location
	Conflict  *dedupe.Result
	RateLimit *ratelimit.Decision
}

// Pipeline orchestrates a single submission request. Each invocation is
// independent; the only shared state is the limiter's counter store.
type Pipeline struct {
	Repo      Repository
	Detector  Detector
	Limiter   Limiter
	Lookup    placeapi.Client
	Analytics analytics.Emitter
	Logger    zerolog.Logger

	// LookupTimeout bounds the external call so one slow lookup cannot
	// block a submission; on expiry the pipeline falls back to the
	// no-enrichment path.
	LookupTimeout time.Duration
	Now           func() time.Time
}

const defaultLookupTimeout = 5 * time.Second

// Submit runs the full sequence for one already-validated submission.
// The error return is reserved for repository failures; everything else is
// expressed in the Outcome.
func (p *Pipeline) Submit(ctx context.Context, clientKey string, submission store.Location) (Outcome, error) {
	decision, err := p.Limiter.Allow(ctx, clientKey)
	if err != nil {
		// A broken limiter store must not take intake down with it.
		p.Logger.Error().Err(err).Msg("rate limiter unavailable, allowing request")
		decision = ratelimit.Decision{Allowed: true}
	}
	if !decision.Allowed {
		return Outcome{Kind: OutcomeRateLimited, RateLimit: &decision}, nil
	}

	corpus, err := p.Repo.ListLocations(ctx, store.LocationFilter{IncludeAll: true})
	if err != nil {
		return Outcome{}, fmt.Errorf("load corpus: %w", err)
	}

	detection := p.Detector.Detect(dedupe.Candidate{
		Name:    submission.Name,
		Address: submission.Address,
		Lat:     submission.Lat,
		Lng:     submission.Lng,
	}, corpus)

	if detection.IsDuplicate {
		p.emit(ctx, analytics.NewEvent(analytics.EventDuplicateRejected, 0, map[string]string{
			"name":   submission.Name,
			"reason": detection.Reason,
		}))
		return Outcome{Kind: OutcomeDuplicate, Conflict: &detection}, nil
	}

	details := p.lookup(ctx, submission)
	merged := enrich.Merge(submission, details)
	if details != nil {
		enrichedAt := p.now()
		merged.EnrichedAt = &enrichedAt
		source := "google-places"
		merged.EnrichmentSource = &source
	}

	created, err := p.Repo.CreateLocation(ctx, merged)
	if err != nil {
		return Outcome{}, fmt.Errorf("persist submission: %w", err)
	}

	p.emit(ctx, analytics.NewEvent(analytics.EventLocationSubmitted, created.ID, map[string]string{
		"name":     created.Name,
		"enriched": fmt.Sprintf("%t", details != nil),
	}))

	return Outcome{Kind: OutcomeCreated, Created: &created}, nil
}

// lookup runs the best-effort third-party search. Any failure, including a
// timeout, degrades to the no-enrichment path and is logged, never surfaced
// to the submitter.
func (p *Pipeline) lookup(ctx context.Context, submission store.Location) *placeapi.Details {
	if p.Lookup == nil || !p.Lookup.Enabled() {
		return nil
	}

	timeout := p.LookupTimeout
	if timeout == 0 {
		timeout = defaultLookupTimeout
	}
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	details, err := p.Lookup.FindPlace(lookupCtx, submission.Name, submission.Address)
	if err != nil {
		p.Logger.Warn().Err(err).Str("name", submission.Name).Msg("place lookup failed, saving unenriched")
		return nil
	}
	return details
}

// ReEnrich forces a fresh lookup-and-merge for one stored record. The caller
// distinguishes a missing record (store.ErrLocationNotFound) from a write
// failure; a failed lookup degrades to returning the record untouched.
func (p *Pipeline) ReEnrich(ctx context.Context, id int64) (store.Location, error) {
	loc, err := p.Repo.GetLocation(ctx, id)
	if err != nil {
		return store.Location{}, err
	}

	details := p.lookup(ctx, loc)
	if details == nil {
		return loc, nil
	}

	merged := enrich.Merge(loc, details)
	enrichedAt := p.now()
	merged.EnrichedAt = &enrichedAt
	source := "google-places"
	merged.EnrichmentSource = &source

	if err := p.Repo.UpdateEnrichment(ctx, id, merged); err != nil {
		return store.Location{}, fmt.Errorf("persist enrichment: %w", err)
	}

	p.emit(ctx, analytics.NewEvent(analytics.EventLocationEnriched, id, nil))
	return p.Repo.GetLocation(ctx, id)
}

func (p *Pipeline) emit(ctx context.Context, event analytics.Event) {
	if p.Analytics == nil {
		return
	}
	p.Analytics.Emit(ctx, event)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

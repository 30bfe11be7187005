package enrich

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"platemap/internal/placeapi"
	"platemap/internal/store"
)

// Sleeper abstracts the inter-call delay so tests run without wall-clock
// waits. It must honor context cancellation.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// TimerSleeper is the production Sleeper.
var TimerSleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
})

// BatchStore is the persistence surface the batch enricher needs.
type BatchStore interface {
	ListLocations(ctx context.Context, filter store.LocationFilter) ([]store.Location, error)
	UpdateEnrichment(ctx context.Context, id int64, loc store.Location) error
}

// BatchReport summarizes one batch run.
type BatchReport struct {
	Processed int     `json:"processed"`
	Enriched  int     `json:"enriched"`
	Skipped   int     `json:"skipped"`
	Failed    []int64 `json:"failed,omitempty"`
}

// Batch re-enriches stored records one at a time, pausing between external
// lookups. The throttle is deliberate: the third-party API rate-limits
// aggressively, and a batch run has no deadline worth violating it for.
type Batch struct {
	Store   BatchStore
	Lookup  placeapi.Client
	Sleeper Sleeper
	Delay   time.Duration
	Logger  zerolog.Logger
	Now     func() time.Time
}

// Run walks all records sequentially. A failed lookup or write is recorded
// and skipped; it never aborts the remaining records.
func (b *Batch) Run(ctx context.Context, filter store.LocationFilter) (BatchReport, error) {
	var report BatchReport

	if b.Lookup == nil || !b.Lookup.Enabled() {
		b.Logger.Warn().Msg("batch enrichment skipped: place lookup disabled")
		return report, nil
	}

	sleeper := b.Sleeper
	if sleeper == nil {
		sleeper = TimerSleeper
	}
	delay := b.Delay
	if delay == 0 {
		delay = time.Second
	}
	now := b.Now
	if now == nil {
		now = time.Now
	}

	locations, err := b.Store.ListLocations(ctx, filter)
	if err != nil {
		return report, err
	}

	for i, loc := range locations {
		if i > 0 {
			if err := sleeper.Sleep(ctx, delay); err != nil {
				return report, err
			}
		}
		report.Processed++

		details, err := b.Lookup.FindPlace(ctx, loc.Name, loc.Address)
		if err != nil {
			b.Logger.Warn().Err(err).Int64("location_id", loc.ID).Msg("batch lookup failed")
			report.Failed = append(report.Failed, loc.ID)
			continue
		}
		if details == nil {
			report.Skipped++
			continue
		}

		merged := Merge(loc, details)
		enrichedAt := now()
		merged.EnrichedAt = &enrichedAt
		source := "google-places"
		merged.EnrichmentSource = &source

		if err := b.Store.UpdateEnrichment(ctx, loc.ID, merged); err != nil {
			b.Logger.Error().Err(err).Int64("location_id", loc.ID).Msg("batch enrichment write failed")
			report.Failed = append(report.Failed, loc.ID)
			continue
		}
		report.Enriched++
	}

	return report, nil
}

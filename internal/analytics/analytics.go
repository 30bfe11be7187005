// Package analytics emits fire-and-forget platform events. Emission failure
// is never allowed to affect the request that produced the event.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types emitted by the intake pipeline.
const (
	EventLocationSubmitted = "location.submitted"
	EventDuplicateRejected = "location.duplicate_rejected"
	EventLocationEnriched  = "location.enriched"
	EventLocationModerated = "location.moderated"
)

// Event is one analytics record.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	LocationID int64             `json:"locationId,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	At         time.Time         `json:"at"`
}

// Emitter receives events. Implementations must not block the caller on slow
// downstream sinks.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// NewEvent stamps an event with a fresh ID and timestamp.
func NewEvent(eventType string, locationID int64, fields map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		LocationID: locationID,
		Fields:     fields,
		At:         time.Now().UTC(),
	}
}

// LogEmitter writes events to the structured log. It stands in for the
// external analytics collaborator; swapping in a real sink only needs a new
// Emitter.
type LogEmitter struct {
	Logger zerolog.Logger
}

// Emit logs the event and returns immediately.
func (e *LogEmitter) Emit(_ context.Context, event Event) {
	entry := e.Logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Time("event_at", event.At)
	if event.LocationID != 0 {
		entry = entry.Int64("location_id", event.LocationID)
	}
	for k, v := range event.Fields {
		entry = entry.Str(k, v)
	}
	entry.Msg("analytics event")
}

// NopEmitter discards events; used in tests.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) {}

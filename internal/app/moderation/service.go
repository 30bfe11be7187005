// Package moderation governs status transitions on stored location records.
//
// The machine is deliberately small: pending is only reachable at creation,
// and approved/rejected are terminal. Re-opening a moderated record is an
// administrative repository operation outside this core, not a transition.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"platemap/internal/store"
)

// Store is the persistence surface the state machine needs. TransitionStatus
// must enforce that only pending records move.
type Store interface {
	GetLocation(ctx context.Context, id int64) (store.Location, error)
	TransitionStatus(ctx context.Context, id int64, target string, notes, reason *string, at time.Time) error
}

// Service applies moderator decisions.
type Service struct {
	store Store
	now   func() time.Time
}

// New constructs a moderation Service.
func New(s Store) *Service {
	return &Service{store: s, now: time.Now}
}

// Approve moves a pending record to approved and stamps the audit fields.
// Approving a record that already left pending fails with
// store.ErrInvalidTransition so callers can detect stale state.
func (s *Service) Approve(ctx context.Context, id int64, notes string) (store.Location, error) {
	return s.transition(ctx, id, store.StatusApproved, notes, "")
}

// Reject moves a pending record to rejected. A reason is required.
func (s *Service) Reject(ctx context.Context, id int64, reason, notes string) (store.Location, error) {
	if strings.TrimSpace(reason) == "" {
		return store.Location{}, fmt.Errorf("%w: rejection reason is required", store.ErrInvalidLocation)
	}
	return s.transition(ctx, id, store.StatusRejected, notes, reason)
}

func (s *Service) transition(ctx context.Context, id int64, target, notes, reason string) (store.Location, error) {
	var notesPtr, reasonPtr *string
	if notes = strings.TrimSpace(notes); notes != "" {
		notesPtr = &notes
	}
	if reason != "" {
		reasonPtr = &reason
	}

	if err := s.store.TransitionStatus(ctx, id, target, notesPtr, reasonPtr, s.now()); err != nil {
		return store.Location{}, err
	}
	return s.store.GetLocation(ctx, id)
}

// Outcome reports the result of one transition inside a bulk request.
type Outcome struct {
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// BulkApprove applies Approve to each id independently. One failing id never
// aborts the rest; every outcome is reported.
func (s *Service) BulkApprove(ctx context.Context, ids []int64, notes string) []Outcome {
	return s.bulk(ids, func(id int64) error {
		_, err := s.Approve(ctx, id, notes)
		return err
	})
}

// BulkReject applies Reject to each id independently.
func (s *Service) BulkReject(ctx context.Context, ids []int64, reason, notes string) []Outcome {
	return s.bulk(ids, func(id int64) error {
		_, err := s.Reject(ctx, id, reason, notes)
		return err
	})
}

func (s *Service) bulk(ids []int64, apply func(id int64) error) []Outcome {
	outcomes := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		outcome := Outcome{ID: id, OK: true}
		if err := apply(id); err != nil {
			outcome.OK = false
			outcome.Error = publicError(err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func publicError(err error) string {
	switch {
	case errors.Is(err, store.ErrLocationNotFound):
		return "location not found"
	case errors.Is(err, store.ErrInvalidTransition):
		return err.Error()
	default:
		return "internal error"
	}
}

// Package repository holds the tabular store for roster, schedule,
// materials and slide links.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/pkg/metrics"
)

// Version identifies one stored state of the schedule. SaveSchedule only
// succeeds when given the version the caller loaded.
type Version string

func newVersion() Version { return Version(uuid.NewString()) }

// Store provides read/write access to the tabular records.
type Store interface {
	// LoadRoster returns participants in insertion order.
	LoadRoster(ctx context.Context) ([]model.Participant, error)
	// SaveRoster replaces the roster.
	SaveRoster(ctx context.Context, roster []model.Participant) error
	// AddParticipant appends to the roster. Returns ErrDuplicate if the name exists.
	AddParticipant(ctx context.Context, p model.Participant) error
	// RemoveParticipant deletes by name. Returns ErrNotFound if absent.
	RemoveParticipant(ctx context.Context, name string) error

	// LoadSchedule returns the schedule in date order and its version.
	LoadSchedule(ctx context.Context) (model.Schedule, Version, error)
	// SaveSchedule replaces the schedule if version is still current and
	// returns the new version. Returns ErrVersionConflict otherwise.
	SaveSchedule(ctx context.Context, schedule model.Schedule, version Version) (Version, error)

	// ListMaterials returns the materials of one meeting date.
	ListMaterials(ctx context.Context, date time.Time) ([]model.Material, error)
	// AddMaterial stores m under a fresh ID and returns it.
	AddMaterial(ctx context.Context, m model.Material) (model.Material, error)
	// DeleteMaterial removes by ID. Returns ErrNotFound if absent.
	DeleteMaterial(ctx context.Context, id string) error

	// FindSlideDeck returns the deck of a date. Returns ErrNotFound if none.
	FindSlideDeck(ctx context.Context, date time.Time) (model.SlideDeck, error)
	// SetSlideDeck records or replaces the deck of a date.
	SetSlideDeck(ctx context.Context, deck model.SlideDeck) error

	Close() error
}

// observe records latency and, on failure, the error kind of one store call.
func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStoreError(op, errorKind(err))
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrVersionConflict):
		return "conflict"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, model.ErrMalformedSlot):
		return "malformed"
	default:
		return "other"
	}
}

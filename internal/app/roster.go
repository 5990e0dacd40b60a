package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/internal/domain/usage"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
	"github.com/bestquark/ml-at-ml-log/pkg/metrics"
)

// Roster returns the participants in roster order.
func (s *Service) Roster(ctx context.Context) ([]model.Participant, error) {
	roster, err := s.store.LoadRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	metrics.UpdateRosterSize(len(roster))
	return roster, nil
}

// AddParticipant validates p and appends it to the roster.
func (s *Service) AddParticipant(ctx context.Context, p model.Participant) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.store.AddParticipant(ctx, p); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	s.logger.Info(ctx, "participant added", logger.String("name", p.Name))
	return nil
}

// RemoveParticipant drops name from the roster. Slots already naming them
// are left alone.
func (s *Service) RemoveParticipant(ctx context.Context, name string) error {
	if err := s.store.RemoveParticipant(ctx, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	s.logger.Info(ctx, "participant removed", logger.String("name", name))
	return nil
}

// Usage returns the usage report, optionally filtered by a name substring.
func (s *Service) Usage(ctx context.Context, filter string) ([]usage.Entry, error) {
	roster, err := s.store.LoadRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	sched, _, err := s.store.LoadSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	return usage.Compute(roster, sched,
		usage.WithWeight(s.weight),
		usage.WithFilter(filter),
	), nil
}

// Materials lists the materials attached to date.
func (s *Service) Materials(ctx context.Context, date time.Time) ([]model.Material, error) {
	list, err := s.store.ListMaterials(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return list, nil
}

// AddMaterial stores m and returns it with its assigned ID.
func (s *Service) AddMaterial(ctx context.Context, m model.Material) (model.Material, error) {
	out, err := s.store.AddMaterial(ctx, m)
	if err != nil {
		return model.Material{}, fmt.Errorf("add material: %w", err)
	}
	s.logger.Info(ctx, "material added",
		logger.String("id", out.ID),
		logger.String("date", out.Date.Format(model.DateLayout)))
	return out, nil
}

// DeleteMaterial removes the material with id.
func (s *Service) DeleteMaterial(ctx context.Context, id string) error {
	if err := s.store.DeleteMaterial(ctx, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}

// SlideDeck returns the deck recorded for date.
func (s *Service) SlideDeck(ctx context.Context, date time.Time) (model.SlideDeck, error) {
	deck, err := s.store.FindSlideDeck(ctx, date)
	if err != nil {
		return model.SlideDeck{}, fmt.Errorf("find slide deck: %w", err)
	}
	return deck, nil
}

// SetSlideDeck records or replaces the deck for its date.
func (s *Service) SetSlideDeck(ctx context.Context, deck model.SlideDeck) error {
	if err := s.store.SetSlideDeck(ctx, deck); err != nil {
		return fmt.Errorf("set slide deck: %w", err)
	}
	return nil
}

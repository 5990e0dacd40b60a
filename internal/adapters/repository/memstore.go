package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
)

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	closed    bool
	roster    []model.Participant
	schedule  model.Schedule
	version   Version
	materials map[string]model.Material
	slides    map[string]model.SlideDeck
	opts      options
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		version:   newVersion(),
		materials: make(map[string]model.Material),
		slides:    make(map[string]model.SlideDeck),
		opts:      o,
	}
}

func (s *MemoryStore) check() error {
	if s.closed {
		return fmt.Errorf("%w: memory store closed", ErrStoreUnavailable)
	}
	return nil
}

func (s *MemoryStore) LoadRoster(ctx context.Context) (_ []model.Participant, err error) {
	defer func(start time.Time) { observe("load_roster", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	out := make([]model.Participant, len(s.roster))
	copy(out, s.roster)
	return out, nil
}

func (s *MemoryStore) SaveRoster(ctx context.Context, roster []model.Participant) (err error) {
	defer func(start time.Time) { observe("save_roster", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(roster))
	for _, p := range roster {
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("%w: participant %q", ErrDuplicate, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	s.roster = append([]model.Participant(nil), roster...)
	return nil
}

func (s *MemoryStore) AddParticipant(ctx context.Context, p model.Participant) (err error) {
	defer func(start time.Time) { observe("add_participant", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	if _, ok := model.Roster(s.roster).Lookup(p.Name); ok {
		return fmt.Errorf("%w: participant %q", ErrDuplicate, p.Name)
	}
	s.roster = append(s.roster, p)
	return nil
}

func (s *MemoryStore) RemoveParticipant(ctx context.Context, name string) (err error) {
	defer func(start time.Time) { observe("remove_participant", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	for i, p := range s.roster {
		if p.Name == name {
			s.roster = append(s.roster[:i:i], s.roster[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: participant %q", ErrNotFound, name)
}

func (s *MemoryStore) LoadSchedule(ctx context.Context) (_ model.Schedule, _ Version, err error) {
	defer func(start time.Time) { observe("load_schedule", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, "", err
	}
	return s.schedule.Clone(), s.version, nil
}

func (s *MemoryStore) SaveSchedule(ctx context.Context, schedule model.Schedule, version Version) (_ Version, err error) {
	defer func(start time.Time) { observe("save_schedule", start, err) }(time.Now())
	if err := schedule.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return "", err
	}
	if version != s.version {
		return "", fmt.Errorf("%w: have %s, stored %s", ErrVersionConflict, version, s.version)
	}
	s.schedule = schedule.Clone()
	s.version = newVersion()
	return s.version, nil
}

func (s *MemoryStore) ListMaterials(ctx context.Context, date time.Time) (_ []model.Material, err error) {
	defer func(start time.Time) { observe("list_materials", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	day := model.Day(date)
	var out []model.Material
	for _, m := range s.materials {
		if m.Date.Equal(day) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) AddMaterial(ctx context.Context, m model.Material) (_ model.Material, err error) {
	defer func(start time.Time) { observe("add_material", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return model.Material{}, err
	}
	m.ID = uuid.NewString()
	m.Date = model.Day(m.Date)
	s.materials[m.ID] = m
	return m, nil
}

func (s *MemoryStore) DeleteMaterial(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("delete_material", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	if _, ok := s.materials[id]; !ok {
		return fmt.Errorf("%w: material %s", ErrNotFound, id)
	}
	delete(s.materials, id)
	return nil
}

func (s *MemoryStore) FindSlideDeck(ctx context.Context, date time.Time) (_ model.SlideDeck, err error) {
	defer func(start time.Time) { observe("find_slide_deck", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return model.SlideDeck{}, err
	}
	key := model.Day(date).Format(model.DateLayout)
	deck, ok := s.slides[key]
	if !ok {
		return model.SlideDeck{}, fmt.Errorf("%w: slide deck for %s", ErrNotFound, key)
	}
	return deck, nil
}

func (s *MemoryStore) SetSlideDeck(ctx context.Context, deck model.SlideDeck) (err error) {
	defer func(start time.Time) { observe("set_slide_deck", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	deck.Date = model.Day(deck.Date)
	s.slides[deck.Date.Format(model.DateLayout)] = deck
	return nil
}

// Close marks the store unavailable. Later calls fail with ErrStoreUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

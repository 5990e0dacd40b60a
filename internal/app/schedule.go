package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bestquark/ml-at-ml-log/internal/adapters/repository"
	"github.com/bestquark/ml-at-ml-log/internal/domain/calendar"
	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/internal/domain/rotation"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
	"github.com/bestquark/ml-at-ml-log/pkg/metrics"
)

// Action is a presenter status transition requested by an organiser.
type Action string

const (
	ActionConfirm    Action = "confirm"
	ActionReschedule Action = "reschedule"
	ActionCancel     Action = "cancel"
	ActionClear      Action = "clear"
)

// AssignResult reports one assignment run.
type AssignResult struct {
	RunID    string             `json:"run_id"`
	Seed     int64              `json:"seed"`
	Proposed int                `json:"proposed"`
	Relaxed  int                `json:"relaxed"`
	Version  repository.Version `json:"version"`
	Schedule model.Schedule     `json:"-"`
}

// Schedule returns the stored schedule and its version.
func (s *Service) Schedule(ctx context.Context) (model.Schedule, repository.Version, error) {
	sched, v, err := s.store.LoadSchedule(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load schedule: %w", err)
	}
	metrics.UpdateScheduleSlots(len(sched))
	metrics.UpdateScheduleEmptyFields(sched.EmptyFields())
	return sched, v, nil
}

// Assign fills every empty field of the stored schedule and saves the result.
func (s *Service) Assign(ctx context.Context, seed int64) (AssignResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.Named("assign")

	res, err := s.assign(ctx, seed, runID)
	metrics.RecordAssignmentDuration(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordAssignmentRun("error")
		metrics.RecordErrorByComponent("service", "assign")
		log.Error(ctx, "assignment failed",
			logger.String("run", runID),
			logger.Int64("seed", seed),
			logger.Error(err))
		return AssignResult{}, err
	}

	metrics.RecordAssignmentRun("ok")
	metrics.RecordProposals(res.Proposed)
	metrics.RecordRelaxations(res.Relaxed)
	log.Info(ctx, "assignment saved",
		logger.String("run", runID),
		logger.Int64("seed", seed),
		logger.Int("proposed", res.Proposed),
		logger.Int("relaxed", res.Relaxed),
		logger.Duration("took", time.Since(start)))
	return res, nil
}

func (s *Service) assign(ctx context.Context, seed int64, runID string) (AssignResult, error) {
	engine, err := rotation.New(
		rotation.WithMinGap(s.minGap),
		rotation.WithWeight(s.weight),
		rotation.WithLookback(s.lookback),
		rotation.WithSeed(seed),
		rotation.WithNow(s.now),
		rotation.WithLogger(s.logger.Named("engine")),
	)
	if err != nil {
		return AssignResult{}, err
	}

	roster, err := s.store.LoadRoster(ctx)
	if err != nil {
		return AssignResult{}, fmt.Errorf("load roster: %w", err)
	}
	metrics.UpdateRosterSize(len(roster))

	s.schedMu.Lock()
	defer s.schedMu.Unlock()

	sched, version, err := s.store.LoadSchedule(ctx)
	if err != nil {
		return AssignResult{}, fmt.Errorf("load schedule: %w", err)
	}
	out, run, err := engine.Assign(ctx, roster, sched)
	if err != nil {
		return AssignResult{}, err
	}
	next, err := s.store.SaveSchedule(ctx, out, version)
	if err != nil {
		return AssignResult{}, fmt.Errorf("save schedule: %w", err)
	}

	metrics.UpdateScheduleSlots(len(out))
	metrics.UpdateScheduleEmptyFields(out.EmptyFields())
	return AssignResult{
		RunID:    runID,
		Seed:     seed,
		Proposed: run.Proposed,
		Relaxed:  run.Relaxed,
		Version:  next,
		Schedule: out,
	}, nil
}

// Extend appends weeks empty slots on the meeting weekday. A non-positive
// weeks uses the configured default.
func (s *Service) Extend(ctx context.Context, weeks int) (model.Schedule, error) {
	if weeks <= 0 {
		weeks = s.weeksAhead
	}
	today := model.Day(s.now())
	return s.mutate(ctx, "extend", func(sched model.Schedule) (model.Schedule, error) {
		return calendar.Extend(sched, weeks, s.weekday, today), nil
	})
}

// DeleteSlot removes the slot on date.
func (s *Service) DeleteSlot(ctx context.Context, date time.Time) error {
	_, err := s.mutate(ctx, "delete_slot", func(sched model.Schedule) (model.Schedule, error) {
		i := sched.Find(date)
		if i < 0 {
			return nil, fmt.Errorf("%w: slot %s", repository.ErrNotFound, model.Day(date).Format(model.DateLayout))
		}
		return append(sched[:i:i], sched[i+1:]...), nil
	})
	return err
}

// UpdateSlot applies action to the presenter at position (1 or 2) on date and
// returns the updated slot.
func (s *Service) UpdateSlot(ctx context.Context, date time.Time, position int, action Action) (model.Slot, error) {
	if position < 1 || position > model.PresentersPerSlot {
		return model.Slot{}, fmt.Errorf("%w: %d", ErrInvalidPosition, position)
	}
	apply, err := transition(action)
	if err != nil {
		return model.Slot{}, err
	}

	var slot model.Slot
	_, err = s.mutate(ctx, "update_slot", func(sched model.Schedule) (model.Schedule, error) {
		i := sched.Find(date)
		if i < 0 {
			return nil, fmt.Errorf("%w: slot %s", repository.ErrNotFound, model.Day(date).Format(model.DateLayout))
		}
		p, err := apply(sched[i].Presenters[position-1])
		if err != nil {
			return nil, fmt.Errorf("slot %s position %d: %w", sched[i].Key(), position, err)
		}
		sched[i].Presenters[position-1] = p
		slot = sched[i]
		return sched, nil
	})
	if err != nil {
		return model.Slot{}, err
	}
	s.logger.Info(ctx, "slot updated",
		logger.String("date", slot.Key()),
		logger.Int("position", position),
		logger.String("action", string(action)))
	return slot, nil
}

func transition(a Action) (func(model.Presenter) (model.Presenter, error), error) {
	switch a {
	case ActionConfirm:
		return model.Presenter.Confirm, nil
	case ActionReschedule:
		return model.Presenter.RequestReschedule, nil
	case ActionCancel:
		return model.Presenter.Cancel, nil
	case ActionClear:
		return model.Presenter.Clear, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, a)
	}
}

// mutate loads the schedule, applies fn and saves the result against the
// version that was loaded.
func (s *Service) mutate(ctx context.Context, op string, fn func(model.Schedule) (model.Schedule, error)) (model.Schedule, error) {
	s.schedMu.Lock()
	defer s.schedMu.Unlock()

	sched, version, err := s.store.LoadSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: load schedule: %w", op, err)
	}
	out, err := fn(sched)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.SaveSchedule(ctx, out, version); err != nil {
		metrics.RecordErrorByComponent("service", op)
		return nil, fmt.Errorf("%s: save schedule: %w", op, err)
	}
	metrics.UpdateScheduleSlots(len(out))
	metrics.UpdateScheduleEmptyFields(out.EmptyFields())
	return out, nil
}

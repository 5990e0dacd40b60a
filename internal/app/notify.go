package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bestquark/ml-at-ml-log/internal/adapters/repository"
	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
	"github.com/bestquark/ml-at-ml-log/pkg/metrics"
)

// Recipient names one pending presenter field.
type Recipient struct {
	Date     string `json:"date"`
	Position int    `json:"position"`
	Name     string `json:"name"`
}

// ConfirmationReport summarises one SendConfirmations call.
type ConfirmationReport struct {
	Queued       []Recipient `json:"queued"`
	MissingEmail []Recipient `json:"missing_email"`
	Duplicates   int         `json:"duplicates"`
	Failed       []Recipient `json:"failed"`
}

// SendConfirmations queues a confirmation request for every proposed
// presenter. Proposals that were already mailed are skipped, and presenters
// without an email address are reported back.
func (s *Service) SendConfirmations(ctx context.Context) (ConfirmationReport, error) {
	q, deduper, err := s.pipeline()
	if err != nil {
		return ConfirmationReport{}, err
	}
	roster, err := s.store.LoadRoster(ctx)
	if err != nil {
		return ConfirmationReport{}, fmt.Errorf("load roster: %w", err)
	}
	sched, _, err := s.store.LoadSchedule(ctx)
	if err != nil {
		return ConfirmationReport{}, fmt.Errorf("load schedule: %w", err)
	}

	report := ConfirmationReport{
		Queued:       []Recipient{},
		MissingEmail: []Recipient{},
		Failed:       []Recipient{},
	}
	for _, slot := range sched {
		for i, p := range slot.Presenters {
			if p.Status != model.StatusProposed {
				continue
			}
			rcpt := Recipient{Date: slot.Key(), Position: i + 1, Name: p.Name}
			member, ok := model.Roster(roster).Lookup(p.Name)
			if !ok || strings.TrimSpace(member.Email) == "" {
				report.MissingEmail = append(report.MissingEmail, rcpt)
				continue
			}

			n, err := s.notification(slot.Date, i+1, member)
			if err != nil {
				return report, err
			}
			key := n.DedupeKey()
			if deduper.SeenAndRecord(ctx, key) {
				metrics.RecordNotificationDuplicate()
				report.Duplicates++
				continue
			}
			if err := q.Enqueue(ctx, n); err != nil {
				deduper.Unrecord(ctx, key)
				s.logger.Warn(ctx, "confirmation not queued",
					logger.String("date", rcpt.Date),
					logger.String("name", rcpt.Name),
					logger.Error(err))
				report.Failed = append(report.Failed, rcpt)
				continue
			}
			report.Queued = append(report.Queued, rcpt)
		}
	}

	s.logger.Info(ctx, "confirmations queued",
		logger.Int("queued", len(report.Queued)),
		logger.Int("missingEmail", len(report.MissingEmail)),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("failed", len(report.Failed)))
	return report, nil
}

func (s *Service) notification(date time.Time, position int, p model.Participant) (model.Notification, error) {
	d := model.Day(date)
	tok, err := s.issuer.Issue(d, position, p.Name)
	if err != nil {
		return model.Notification{}, fmt.Errorf("confirmation link for %s: %w", p.Name, err)
	}
	return model.Notification{
		ID:       uuid.NewString(),
		Date:     d,
		Position: position,
		Name:     p.Name,
		Email:    p.Email,
		Link:     strings.TrimRight(s.appURL, "/") + "/confirm?token=" + url.QueryEscape(tok),
	}, nil
}

// ConfirmByToken verifies a confirmation link and confirms the presenter it
// names. Confirming an already confirmed presenter succeeds without change.
func (s *Service) ConfirmByToken(ctx context.Context, raw string) (model.Slot, error) {
	c, err := s.issuer.Verify(raw)
	if err != nil {
		return model.Slot{}, err
	}

	var (
		slot    model.Slot
		changed bool
	)
	_, err = s.mutate(ctx, "confirm", func(sched model.Schedule) (model.Schedule, error) {
		i := sched.Find(c.Date)
		if i < 0 {
			return nil, fmt.Errorf("%w: slot %s", repository.ErrNotFound, c.Date.Format(model.DateLayout))
		}
		p := sched[i].Presenters[c.Position-1]
		if p.IsEmpty() || p.Name != c.Name {
			return nil, fmt.Errorf("%w: %s position %d is %q", ErrStaleConfirmation, sched[i].Key(), c.Position, p.String())
		}
		slot = sched[i]
		if p.Status == model.StatusConfirmed {
			return nil, errUnchanged
		}
		confirmed, err := p.Confirm()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStaleConfirmation, err)
		}
		sched[i].Presenters[c.Position-1] = confirmed
		slot = sched[i]
		changed = true
		return sched, nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return model.Slot{}, err
	}
	if changed {
		s.logger.Info(ctx, "presenter confirmed",
			logger.String("date", slot.Key()),
			logger.String("name", c.Name))
	}
	return slot, nil
}

// errUnchanged aborts a mutation that has nothing to save.
var errUnchanged = errors.New("unchanged")

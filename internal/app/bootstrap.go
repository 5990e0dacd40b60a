package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bestquark/ml-at-ml-log/internal/adapters/mail"
	workerpool "github.com/bestquark/ml-at-ml-log/internal/adapters/mq/worker"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/repository"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/token"
	"github.com/bestquark/ml-at-ml-log/internal/config"
	"github.com/bestquark/ml-at-ml-log/internal/domain/calendar"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

// OpenStore opens the store selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case "sqlite":
		s, err := repository.OpenSQLite(ctx, cfg.SQLitePath, repository.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", cfg.SQLitePath, err)
		}
		return s, nil
	case "memory", "":
		return repository.NewMemoryStore(repository.WithLogger(log)), nil
	default:
		return nil, fmt.Errorf("%w: unknown store_driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}

// NewSender builds the mail sender selected by cfg.MailDriver. Console
// output goes to w.
func NewSender(cfg *config.Config, w io.Writer, log logger.Logger) (workerpool.Sender, error) {
	composer := mail.Composer{Organizer: cfg.OrganizerName}
	switch strings.ToLower(cfg.MailDriver) {
	case "sendgrid":
		return mail.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFrom, composer,
			mail.WithLogger(log)), nil
	case "console", "":
		return mail.NewConsoleSender(w, cfg.MailFrom, composer), nil
	default:
		return nil, fmt.Errorf("%w: unknown mail_driver %q", config.ErrInvalidConfig, cfg.MailDriver)
	}
}

// FromConfig builds a Service with every component cfg selects. The caller
// owns the returned service and must Stop it, which also closes the store.
func FromConfig(ctx context.Context, cfg *config.Config, out io.Writer, log logger.Logger) (*Service, error) {
	day, err := calendar.ParseWeekday(cfg.MeetingWeekday)
	if err != nil {
		return nil, fmt.Errorf("%w: meeting_weekday: %v", config.ErrInvalidConfig, err)
	}
	sender, err := NewSender(cfg, out, log.Named("mail"))
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(ctx, cfg, log.Named("store"))
	if err != nil {
		return nil, err
	}

	return New(
		WithLogger(log),
		WithStore(store),
		WithSender(sender),
		WithTokenIssuer(token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)),
		WithMinGap(cfg.MinGap),
		WithPresentationWeight(cfg.PresentationWeight),
		WithLookback(cfg.Lookback()),
		WithDefaultSeed(cfg.Seed),
		WithMeetingDay(day),
		WithWeeksAhead(cfg.WeeksAhead),
		WithAppURL(cfg.AppURL),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
	), nil
}

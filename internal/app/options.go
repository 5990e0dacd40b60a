package service

import (
	"time"

	"github.com/bestquark/ml-at-ml-log/internal/adapters/mq/worker"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/repository"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/token"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSender sets how confirmation mails are delivered.
func WithSender(sender worker.Sender) Option {
	return func(s *Service) {
		if sender != nil {
			s.sender = sender
		}
	}
}

// WithTokenIssuer sets the signer for confirmation links.
func WithTokenIssuer(issuer *token.Issuer) Option {
	return func(s *Service) {
		if issuer != nil {
			s.issuer = issuer
		}
	}
}

// WithMinGap sets the cooldown in weeks passed to the engine.
func WithMinGap(weeks int) Option {
	return func(s *Service) { s.minGap = weeks }
}

// WithPresentationWeight sets the usage weight of one presentation.
func WithPresentationWeight(w float64) Option {
	return func(s *Service) { s.weight = w }
}

// WithLookback bounds which presentations count toward usage. Zero counts all.
func WithLookback(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.lookback = d
		}
	}
}

// WithDefaultSeed sets the seed used when a caller does not pick one.
func WithDefaultSeed(seed int64) Option {
	return func(s *Service) { s.seed = seed }
}

// WithMeetingDay sets the weekday new slots fall on.
func WithMeetingDay(day time.Weekday) Option {
	return func(s *Service) { s.weekday = day }
}

// WithWeeksAhead sets how many slots Extend adds by default.
func WithWeeksAhead(weeks int) Option {
	return func(s *Service) {
		if weeks > 0 {
			s.weeksAhead = weeks
		}
	}
}

// WithAppURL sets the public base URL used in confirmation links.
func WithAppURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.appURL = url
		}
	}
}

// WithWorkerCount sets the number of mail workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending notifications.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many sent notifications are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithClock sets the clock used for lookback and calendar decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

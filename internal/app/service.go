// Package service ties the rotation engine, the store and the confirmation
// pipeline together behind the operations the HTTP API and the CLI use.
package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/bestquark/ml-at-ml-log/internal/adapters/mail"
	eventqueue "github.com/bestquark/ml-at-ml-log/internal/adapters/mq/queue"
	workerpool "github.com/bestquark/ml-at-ml-log/internal/adapters/mq/worker"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/repository"
	"github.com/bestquark/ml-at-ml-log/internal/adapters/token"
	"github.com/bestquark/ml-at-ml-log/internal/domain/dedupe"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
	"github.com/bestquark/ml-at-ml-log/pkg/metrics"
)

const (
	defaultMinGap     = 7
	defaultWeight     = 4
	defaultLookback   = 150 * 24 * time.Hour
	defaultSeed       = 42
	defaultWeeksAhead = 1
	defaultWorkers    = 2
	defaultQueueSize  = 1024
	defaultDedupeSize = 4096
	defaultAppURL     = "http://localhost:9080"
)

// Service implements the operations of the presenter rotation.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	sender  workerpool.Sender
	issuer  *token.Issuer
	deduper dedupe.Deduper
	queue   eventqueue.Queue
	pool    *workerpool.Pool

	// Rotation settings
	minGap     int
	weight     float64
	lookback   time.Duration
	seed       int64
	weekday    time.Weekday
	weeksAhead int
	appURL     string

	// Pipeline settings
	workerCount int
	queueSize   int
	dedupeSize  int

	// State
	started bool
	cancel  context.CancelFunc

	// schedMu serialises read-modify-write cycles on the schedule made
	// through this process. The store version guards the rest.
	schedMu sync.Mutex

	now    func() time.Time
	logger logger.Logger
}

// New constructs a Service. Without WithStore it keeps everything in memory,
// and without WithSender confirmation mails are discarded.
func New(opts ...Option) *Service {
	s := &Service{
		minGap:      defaultMinGap,
		weight:      defaultWeight,
		lookback:    defaultLookback,
		seed:        defaultSeed,
		weekday:     time.Wednesday,
		weeksAhead:  defaultWeeksAhead,
		appURL:      defaultAppURL,
		workerCount: defaultWorkers,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		now:         time.Now,
		logger:      logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithLogger(s.logger))
	}
	if s.sender == nil {
		s.sender = mail.NewConsoleSender(io.Discard, "noreply@example.com", mail.Composer{})
	}
	if s.issuer == nil {
		s.issuer = token.NewIssuer("change-me", 0)
	}
	return s
}

// DefaultSeed returns the seed used when a caller does not pick one.
func (s *Service) DefaultSeed() int64 { return s.seed }

// Start builds the notification pipeline and starts its workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting rotation service...")

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.sender,
		workerpool.WithLogger(s.logger),
		workerpool.WithForgetter(s.deduper),
	)

	// Workers outlive the request that started them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "rotation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("minGap", s.minGap),
	)
	return nil
}

// Stop drains the notification queue and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	if s.started {
		s.logger.Info(ctx, "stopping rotation service...")
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
		s.cancel()
		s.started = false
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "closing store", logger.Error(err))
	}
	s.logger.Info(ctx, "rotation service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"minGap":      s.minGap,
		"weight":      s.weight,
		"meetingDay":  s.weekday.String(),
	}

	if s.started {
		queueLen := s.queue.Len()
		stats["queueLength"] = queueLen
		stats["notificationsRemembered"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	ctx := context.Background()
	if sched, _, err := s.store.LoadSchedule(ctx); err == nil {
		stats["slots"] = len(sched)
		stats["emptyFields"] = sched.EmptyFields()
	}
	if roster, err := s.store.LoadRoster(ctx); err == nil {
		stats["participants"] = len(roster)
	}
	return stats
}

// pipeline returns the running queue and deduper.
func (s *Service) pipeline() (eventqueue.Queue, dedupe.Deduper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.queue, s.deduper, nil
}

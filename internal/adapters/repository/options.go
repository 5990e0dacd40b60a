package repository

import (
	"time"

	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

// Option configures a store.
type Option func(*options)

type options struct {
	log         logger.Logger
	busyTimeout time.Duration
}

func defaultOptions() options {
	return options{
		log:         logger.Nop(),
		busyTimeout: 5 * time.Second,
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

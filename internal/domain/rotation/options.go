package rotation

import (
	"time"

	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithMinGap sets the number of weeks a participant sits out after presenting.
func WithMinGap(weeks int) Option {
	return func(e *Engine) { e.minGap = weeks }
}

// WithWeight sets the usage weight of one presentation.
func WithWeight(w float64) Option {
	return func(e *Engine) { e.weight = w }
}

// WithSeed sets the seed for tie-breaking.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithLookback sets how far back presentations count toward usage.
// Zero counts every slot.
func WithLookback(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.lookback = d
		}
	}
}

// WithNow sets the clock used for the lookback window.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

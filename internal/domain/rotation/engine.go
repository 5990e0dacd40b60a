// Package rotation fills empty presenter fields of a meeting schedule.
//
// The engine is a greedy pass over the schedule in date order. Each empty
// field gets the participant with the lowest weighted usage among those who
// have sat out at least the minimum gap on both sides of the week. Ties are
// broken by a seeded shuffle, so equal inputs and seeds give equal outputs.
package rotation

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
	"github.com/bestquark/ml-at-ml-log/pkg/logger"
)

const (
	defaultMinGap   = 7
	defaultWeight   = 4
	defaultLookback = 150 * 24 * time.Hour
	defaultSeed     = 42
)

// tier is the relaxation level a pick was made at.
type tier int

const (
	tierStrict   tier = iota // gap clear on both sides, partner excluded
	tierBackward             // only the gap since the last presentation
	tierRoster               // anyone but the slot partner
	tierAnyone               // anyone, including the partner
)

func (t tier) String() string {
	switch t {
	case tierStrict:
		return "strict"
	case tierBackward:
		return "backward"
	case tierRoster:
		return "roster"
	default:
		return "anyone"
	}
}

// Result summarises one Assign run.
type Result struct {
	Proposed int
	Relaxed  int
	Usage    map[string]int
}

// Engine assigns presenters. It holds configuration only and is safe to
// share between goroutines.
type Engine struct {
	minGap   int
	weight   float64
	seed     int64
	lookback time.Duration
	now      func() time.Time
	log      logger.Logger
}

// New creates an engine, validating gap and weight.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		minGap:   defaultMinGap,
		weight:   defaultWeight,
		seed:     defaultSeed,
		lookback: defaultLookback,
		now:      time.Now,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.minGap <= 0 {
		return nil, fmt.Errorf("%w: min gap must be positive, got %d", ErrInvalidConfiguration, e.minGap)
	}
	if e.weight <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive, got %g", ErrInvalidConfiguration, e.weight)
	}
	return e, nil
}

// MinGap returns the configured gap in weeks.
func (e *Engine) MinGap() int { return e.minGap }

// run is the state of one Assign call.
type run struct {
	e      *Engine
	rng    *rand.Rand
	roster []string
	known  map[string]bool
	count  map[string]int
	last   map[string]int
	avail  *availability
	cutoff time.Time
	res    Result
}

// Assign returns a copy of schedule with every empty presenter field filled
// by a Proposed entry. Filled fields are returned untouched. The input is
// never modified.
func (e *Engine) Assign(ctx context.Context, participants []model.Participant, schedule model.Schedule) (model.Schedule, Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, Result{}, fmt.Errorf("assign: %w", err)
	}
	names := model.Roster(participants).Names()
	if len(names) == 0 {
		return nil, Result{}, fmt.Errorf("%w: no participants", ErrInvalidConfiguration)
	}
	if err := schedule.Validate(); err != nil {
		return nil, Result{}, err
	}

	r := e.newRun(names)
	out := schedule.Clone()
	r.prescan(out)
	if err := r.fill(ctx, out); err != nil {
		return nil, Result{}, err
	}
	r.res.Usage = r.count
	return out, r.res, nil
}

func (e *Engine) newRun(names []string) *run {
	r := &run{
		e:      e,
		rng:    rand.New(rand.NewSource(e.seed)), //nolint:gosec // reproducible tie-breaking
		roster: names,
		known:  make(map[string]bool, len(names)),
		count:  make(map[string]int, len(names)),
		last:   make(map[string]int, len(names)),
		avail:  newAvailability(e.minGap),
	}
	if e.lookback > 0 {
		r.cutoff = model.Day(e.now().Add(-e.lookback))
	}
	for _, n := range names {
		r.known[n] = true
		r.count[n] = 0
		r.last[n] = -e.minGap
	}
	return r
}

// prescan blocks the weeks around every fixed presentation so that earlier
// empty fields respect assignments already made later in the schedule.
func (r *run) prescan(s model.Schedule) {
	for w, slot := range s {
		for _, p := range slot.Presenters {
			if !p.IsEmpty() && r.known[p.Name] {
				r.avail.reserve(p.Name, w)
			}
		}
	}
}

func (r *run) fill(ctx context.Context, s model.Schedule) error {
	for w := range s {
		slot := &s[w]
		for i := range slot.Presenters {
			p := slot.Presenters[i]
			if !p.IsEmpty() {
				if r.known[p.Name] {
					r.credit(p.Name, w, slot.Date)
				}
				continue
			}

			partner := slot.Presenters[1-i]
			name, t, err := r.pick(w, partner)
			if err != nil {
				return fmt.Errorf("slot %s: %w", slot.Key(), err)
			}
			slot.Presenters[i] = model.Proposed(name)
			r.credit(name, w, slot.Date)
			r.avail.reserve(name, w)
			r.res.Proposed++
			if t != tierStrict {
				r.res.Relaxed++
				r.e.log.Debug(ctx, "relaxed pick",
					logger.String("date", slot.Key()),
					logger.String("name", name),
					logger.String("tier", t.String()))
			}
		}
	}
	return nil
}

func (r *run) credit(name string, w int, date time.Time) {
	if r.cutoff.IsZero() || !date.Before(r.cutoff) {
		r.count[name]++
	}
	r.last[name] = w
}

// pick chooses one participant for week w, relaxing the eligibility rule
// tier by tier until the pool is non-empty.
func (r *run) pick(w int, partner model.Presenter) (string, tier, error) {
	exclude := ""
	if !partner.IsEmpty() {
		exclude = partner.Name
	}
	gap := r.e.minGap

	rules := []func(string) bool{
		tierStrict: func(n string) bool {
			return n != exclude && w-r.last[n] >= gap && r.avail.free(n, w)
		},
		tierBackward: func(n string) bool {
			return n != exclude && w-r.last[n] >= gap
		},
		tierRoster: func(n string) bool { return n != exclude },
		tierAnyone: func(string) bool { return true },
	}

	for t, ok := range rules {
		var pool []string
		for _, n := range r.roster {
			if ok(n) {
				pool = append(pool, n)
			}
		}
		if len(pool) > 0 {
			return r.lowest(pool), tier(t), nil
		}
	}
	return "", tierAnyone, ErrEmptyCandidatePool
}

// lowest shuffles the pool and returns the first entry after a stable sort
// by weighted usage.
func (r *run) lowest(pool []string) string {
	r.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	sort.SliceStable(pool, func(i, j int) bool {
		return r.score(pool[i]) < r.score(pool[j])
	})
	return pool[0]
}

func (r *run) score(name string) float64 {
	return float64(r.count[name]) * r.e.weight
}

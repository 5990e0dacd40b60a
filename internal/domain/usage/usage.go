// Package usage computes the per-participant presentation report.
package usage

import (
	"math"
	"sort"
	"strings"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
)

const defaultWeight = 4

// Band labels a participant's activity relative to the roster.
type Band string

const (
	BandLow     Band = "low"
	BandAverage Band = "average"
	BandHigh    Band = "high"
)

// Entry is one row of the usage report.
type Entry struct {
	Name   string  `json:"name"`
	Email  string  `json:"email,omitempty"`
	Count  int     `json:"count"`
	Points float64 `json:"points"`
	Score  float64 `json:"score"`
	Band   Band    `json:"band"`
}

type settings struct {
	weight float64
	filter string
}

// Option configures Compute.
type Option func(*settings)

// WithWeight sets the points per presentation.
func WithWeight(w float64) Option {
	return func(s *settings) {
		if w > 0 {
			s.weight = w
		}
	}
}

// WithFilter keeps only participants whose name contains q, ignoring case.
// Normalisation still uses the whole roster.
func WithFilter(q string) Option {
	return func(s *settings) { s.filter = strings.ToLower(strings.TrimSpace(q)) }
}

// Compute counts presentations per roster member across the schedule.
// Proposed and rescheduled fields count as held turns; cancelled fields do
// not. Entries are ordered by score, then name.
func Compute(roster []model.Participant, schedule model.Schedule, opts ...Option) []Entry {
	cfg := settings{weight: defaultWeight}
	for _, opt := range opts {
		opt(&cfg)
	}

	counts := make(map[string]int)
	for _, slot := range schedule {
		for _, p := range slot.Presenters {
			if p.IsEmpty() || p.Status == model.StatusCancelled {
				continue
			}
			counts[p.Name]++
		}
	}

	entries := make([]Entry, 0, len(roster))
	seen := make(map[string]struct{}, len(roster))
	for _, member := range roster {
		if _, ok := seen[member.Name]; ok {
			continue
		}
		seen[member.Name] = struct{}{}
		n := counts[member.Name]
		entries = append(entries, Entry{
			Name:   member.Name,
			Email:  member.Email,
			Count:  n,
			Points: float64(n) * cfg.weight,
		})
	}
	normalise(entries)

	if cfg.filter != "" {
		kept := entries[:0]
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Name), cfg.filter) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score < entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// normalise maps points onto [-1, 1] and assigns bands.
func normalise(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	lo, hi := entries[0].Points, entries[0].Points
	for _, e := range entries[1:] {
		lo = math.Min(lo, e.Points)
		hi = math.Max(hi, e.Points)
	}
	for i := range entries {
		score := 0.0
		if hi > lo {
			score = 2*(entries[i].Points-lo)/(hi-lo) - 1
			score = math.Round(score*100) / 100
		}
		entries[i].Score = score
		entries[i].Band = band(score)
	}
}

func band(score float64) Band {
	switch {
	case score < -0.5:
		return BandLow
	case score > 0.5:
		return BandHigh
	default:
		return BandAverage
	}
}

package rotation

import "sort"

// span is a half-open range of week indices [from, to).
type span struct{ from, to int }

// availability tracks, per participant, the weeks blocked by presentations.
// A presentation at week f blocks [f, f+gap), so a candidate at week w
// conflicts with some presentation f exactly when [w, w+gap) overlaps its
// span. Spans are kept sorted and merged.
type availability struct {
	gap   int
	spans map[string][]span
}

func newAvailability(gap int) *availability {
	return &availability{gap: gap, spans: make(map[string][]span)}
}

// reserve records a presentation by name at week w.
func (a *availability) reserve(name string, w int) {
	s := span{from: w, to: w + a.gap}
	list := a.spans[name]
	i := sort.Search(len(list), func(i int) bool { return list[i].to >= s.from })
	j := i
	for j < len(list) && list[j].from <= s.to {
		if list[j].from < s.from {
			s.from = list[j].from
		}
		if list[j].to > s.to {
			s.to = list[j].to
		}
		j++
	}
	merged := make([]span, 0, len(list)-(j-i)+1)
	merged = append(merged, list[:i]...)
	merged = append(merged, s)
	merged = append(merged, list[j:]...)
	a.spans[name] = merged
}

// free reports whether name can present at week w without falling within
// the gap of any recorded presentation, before or after w.
func (a *availability) free(name string, w int) bool {
	from, to := w, w+a.gap
	list := a.spans[name]
	i := sort.Search(len(list), func(i int) bool { return list[i].to > from })
	return i == len(list) || list[i].from >= to
}

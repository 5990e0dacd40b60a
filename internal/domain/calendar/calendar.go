// Package calendar places new meeting slots on the weekly calendar.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/bestquark/ml-at-ml-log/internal/domain/model"
)

// NextWeekday returns the first date strictly after `after` that falls on day.
func NextWeekday(after time.Time, day time.Weekday) time.Time {
	d := model.Day(after)
	ahead := (int(day) - int(d.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return d.AddDate(0, 0, ahead)
}

// Extend returns a copy of schedule with weeks empty slots appended. The
// first new slot is on the meeting day after the last slot, or after today
// when the schedule is empty.
func Extend(schedule model.Schedule, weeks int, day time.Weekday, today time.Time) model.Schedule {
	out := make(model.Schedule, len(schedule), len(schedule)+max(weeks, 0))
	copy(out, schedule)

	from, ok := schedule.Last()
	if !ok {
		from = today
	}
	next := NextWeekday(from, day)
	for i := 0; i < weeks; i++ {
		out = append(out, model.NewSlot(next))
		next = next.AddDate(0, 0, 7)
	}
	return out
}

// ParseWeekday accepts an English weekday name such as "wednesday" or "Wed".
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || (len(name) >= 3 && strings.HasPrefix(full, name)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

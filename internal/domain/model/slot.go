package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// PresentersPerSlot is the number of presenter fields in a slot.
const PresentersPerSlot = 2

// Slot is one dated meeting with two presenter fields.
type Slot struct {
	Date       time.Time
	Presenters [PresentersPerSlot]Presenter
}

// NewSlot builds a slot for a calendar date with both fields empty.
func NewSlot(date time.Time) Slot {
	return Slot{Date: Day(date)}
}

// ParseSlot decodes a slot from its date and two presenter field strings.
func ParseSlot(date, first, second string) (Slot, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Slot{}, err
	}
	s := Slot{Date: d}
	for i, raw := range []string{first, second} {
		p, err := ParsePresenter(raw)
		if err != nil {
			return Slot{}, fmt.Errorf("slot %s field %d: %w", date, i+1, err)
		}
		s.Presenters[i] = p
	}
	return s, nil
}

// Key returns the slot's date in DateLayout.
func (s Slot) Key() string { return s.Date.Format(DateLayout) }

// EmptyFields counts unfilled presenter fields.
func (s Slot) EmptyFields() int {
	n := 0
	for _, p := range s.Presenters {
		if p.IsEmpty() {
			n++
		}
	}
	return n
}

// Schedule is the ordered list of slots.
type Schedule []Slot

// Clone returns a copy that shares no backing array with s.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	out := make(Schedule, len(s))
	copy(out, s)
	return out
}

// Validate checks that dates are strictly ascending, hence unique.
func (s Schedule) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("%w: slot %d date %s is not after %s",
				ErrMalformedSlot, i, s[i].Key(), s[i-1].Key())
		}
	}
	return nil
}

// Find returns the index of the slot on the given date, or -1.
func (s Schedule) Find(date time.Time) int {
	d := Day(date)
	for i := range s {
		if s[i].Date.Equal(d) {
			return i
		}
	}
	return -1
}

// EmptyFields counts unfilled presenter fields across the schedule.
func (s Schedule) EmptyFields() int {
	n := 0
	for _, slot := range s {
		n += slot.EmptyFields()
	}
	return n
}

// Last returns the date of the last slot and false if the schedule is empty.
func (s Schedule) Last() (time.Time, bool) {
	if len(s) == 0 {
		return time.Time{}, false
	}
	return s[len(s)-1].Date, true
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrMalformedSlot, s)
	}
	return d, nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// EmptyMarker is the wire value of an unfilled presenter field.
const EmptyMarker = "EMPTY"

// Status is the provenance/state of a presenter field.
type Status int

const (
	StatusEmpty Status = iota
	StatusConfirmed
	StatusProposed
	StatusRescheduled
	StatusCancelled
)

var statusTags = map[Status]string{
	StatusProposed:    "P",
	StatusRescheduled: "R",
	StatusCancelled:   "C",
}

// String returns a lower-case name used in logs and JSON.
func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusConfirmed:
		return "confirmed"
	case StatusProposed:
		return "proposed"
	case StatusRescheduled:
		return "rescheduled"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Presenter is one presenter field of a slot.
//
// The zero value is an empty field. raw holds the text the field was parsed
// from so that fields nobody touched are written back byte-for-byte.
type Presenter struct {
	Status Status
	Name   string
	raw    string
}

// Empty returns an unfilled presenter field.
func Empty() Presenter { return Presenter{} }

// Confirmed returns an untagged presenter field.
func Confirmed(name string) Presenter { return Presenter{Status: StatusConfirmed, Name: name} }

// Proposed returns a "[P]" presenter field.
func Proposed(name string) Presenter { return Presenter{Status: StatusProposed, Name: name} }

// Rescheduled returns a "[R]" presenter field.
func Rescheduled(name string) Presenter { return Presenter{Status: StatusRescheduled, Name: name} }

// Cancelled returns a "[C]" presenter field.
func Cancelled(name string) Presenter { return Presenter{Status: StatusCancelled, Name: name} }

// IsEmpty reports whether the field holds the unfilled sentinel.
func (p Presenter) IsEmpty() bool { return p.Status == StatusEmpty }

// ParsePresenter decodes a presenter field from its wire form:
// "EMPTY", "[P] name", "[R] name", "[C] name" or a bare name.
// A blank field is treated as EMPTY.
func ParsePresenter(s string) (Presenter, error) {
	text := strings.TrimSpace(s)
	if text == "" || text == EmptyMarker {
		return Presenter{raw: s}, nil
	}
	if !strings.HasPrefix(text, "[") {
		return Presenter{Status: StatusConfirmed, Name: text, raw: s}, nil
	}

	end := strings.IndexByte(text, ']')
	if end < 0 {
		return Presenter{}, fmt.Errorf("%w: unterminated tag in %q", ErrMalformedSlot, s)
	}
	tag := strings.TrimSpace(text[1:end])
	name := strings.TrimSpace(text[end+1:])

	var status Status
	switch strings.ToUpper(tag) {
	case "P":
		status = StatusProposed
	case "R":
		status = StatusRescheduled
	case "C":
		status = StatusCancelled
	default:
		return Presenter{}, fmt.Errorf("%w: unknown tag [%s] in %q", ErrMalformedSlot, tag, s)
	}
	if name == "" {
		return Presenter{}, fmt.Errorf("%w: tag without name in %q", ErrMalformedSlot, s)
	}
	return Presenter{Status: status, Name: name, raw: s}, nil
}

// String encodes the field in its wire form. Fields that came from
// ParsePresenter and were not modified keep their original text.
func (p Presenter) String() string {
	if p.raw != "" {
		return p.raw
	}
	switch p.Status {
	case StatusEmpty:
		return EmptyMarker
	case StatusConfirmed:
		return p.Name
	default:
		return "[" + statusTags[p.Status] + "] " + p.Name
	}
}

// Confirm accepts a proposal or a pending reschedule.
func (p Presenter) Confirm() (Presenter, error) {
	switch p.Status {
	case StatusProposed, StatusRescheduled:
		return Confirmed(p.Name), nil
	default:
		return p, fmt.Errorf("%w: cannot confirm a %s field", ErrInvalidTransition, p.Status)
	}
}

// RequestReschedule marks a proposed or confirmed presenter as asking to move.
func (p Presenter) RequestReschedule() (Presenter, error) {
	switch p.Status {
	case StatusProposed, StatusConfirmed:
		return Rescheduled(p.Name), nil
	default:
		return p, fmt.Errorf("%w: cannot reschedule a %s field", ErrInvalidTransition, p.Status)
	}
}

// Cancel marks a named presenter as cancelled.
func (p Presenter) Cancel() (Presenter, error) {
	if p.Status == StatusEmpty || p.Status == StatusCancelled {
		return p, fmt.Errorf("%w: cannot cancel a %s field", ErrInvalidTransition, p.Status)
	}
	return Cancelled(p.Name), nil
}

// Clear empties the field so the next assignment run refills it.
func (p Presenter) Clear() (Presenter, error) {
	if p.Status == StatusEmpty {
		return p, fmt.Errorf("%w: field is already empty", ErrInvalidTransition)
	}
	return Empty(), nil
}

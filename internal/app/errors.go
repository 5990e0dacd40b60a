package service

import "errors"

var (
	// ErrNotStarted is returned by operations that need the notification
	// pipeline before Start was called.
	ErrNotStarted = errors.New("service not started")

	// ErrInvalidAction is returned for an unknown slot transition.
	ErrInvalidAction = errors.New("invalid slot action")

	// ErrInvalidPosition is returned for a presenter position other than 1 or 2.
	ErrInvalidPosition = errors.New("invalid presenter position")

	// ErrStaleConfirmation is returned when a confirmation link no longer
	// matches the presenter it was issued for.
	ErrStaleConfirmation = errors.New("confirmation no longer matches the schedule")
)

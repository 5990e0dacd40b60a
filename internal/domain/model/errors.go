package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrMalformedSlot      = errors.New("malformed slot")
	ErrInvalidTransition  = errors.New("invalid presenter transition")
	ErrInvalidParticipant = errors.New("invalid participant")
)

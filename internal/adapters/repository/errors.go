package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("record already exists")
	ErrVersionConflict  = errors.New("schedule was modified concurrently")
	ErrStoreUnavailable = errors.New("store unavailable")
)

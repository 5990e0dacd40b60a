package rotation

import "errors"

var (
	// ErrInvalidConfiguration is returned before any work when the gap,
	// weight or roster cannot support a run.
	ErrInvalidConfiguration = errors.New("invalid rotation configuration")
	// ErrEmptyCandidatePool is returned when no participant can be picked
	// even after every relaxation.
	ErrEmptyCandidatePool = errors.New("empty candidate pool")
)

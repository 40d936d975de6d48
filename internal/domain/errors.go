package domain

import "errors"

var (
	// ErrInvalidInput rejects a request before any simulation runs:
	// non-positive step count, out-of-range coordinates, or a zero
	// flood date. Callers match it with errors.Is.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateTimestamp reports two frames sharing a timestamp.
	// The simulator spaces steps at a fixed interval, so a duplicate
	// indicates a simulator defect rather than a data condition.
	ErrDuplicateTimestamp = errors.New("duplicate timestamp")
)

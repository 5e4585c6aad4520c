package queue

import "errors"

var (
	// ErrJobNotFound is returned when a write targets a job that no longer exists.
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidTransition is returned when a write would move a job out of a
	// terminal status or back to pending.
	ErrInvalidTransition = errors.New("invalid status transition")
)

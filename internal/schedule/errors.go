package schedule

import "errors"

var (
	// ErrIndexOutOfRange is returned when a positional delete does not address a current entry.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNotFound is returned when no entry carries the given id.
	ErrNotFound = errors.New("entry not found")
	// ErrInvalidDay is returned for a day outside Monday..Sunday and Everyday.
	ErrInvalidDay = errors.New("invalid day")
	// ErrInvalidTime is returned for a time that is not HH:MM.
	ErrInvalidTime = errors.New("invalid time")
)

package scheduling

import "errors"

var (
	// ErrSlotConflict is returned when the requested interval overlaps an
	// active appointment for the same worker. Clients should refresh the free
	// slots and retry with a different one.
	ErrSlotConflict = errors.New("scheduling: slot already taken")

	// ErrOutsideHours is returned when the requested interval does not fit
	// inside the clinic's working window.
	ErrOutsideHours = errors.New("scheduling: outside clinic working hours")

	// ErrPastStart is returned when the requested start has already passed.
	ErrPastStart = errors.New("scheduling: start is in the past")

	// ErrIllegalTransition is returned for a status change the lifecycle
	// table does not allow.
	ErrIllegalTransition = errors.New("scheduling: illegal status transition")

	// ErrNotFound is returned when an appointment does not exist.
	ErrNotFound = errors.New("scheduling: appointment not found")
)

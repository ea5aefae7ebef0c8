package catalog

import "errors"

var (
	// ErrNotFound is returned when a worker, service or profession does not exist.
	ErrNotFound = errors.New("catalog: not found")

	// ErrMissingDuration is returned when no positive procedure duration is
	// configured anywhere in the service/worker → profession chain.
	ErrMissingDuration = errors.New("catalog: procedure duration not configured")
)

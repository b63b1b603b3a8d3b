package engine

import "errors"

var (
	// ErrNotFound is returned by Get when the key does not exist. It is a
	// distinguished positive signal, not an engine failure.
	ErrNotFound = errors.New("engine: key not found")

	// ErrClosed is returned by any operation attempted on a closed or
	// never-opened engine.
	ErrClosed = errors.New("engine: closed")
)

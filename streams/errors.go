package streams

import "errors"

var (
	ErrNotStarted     = errors.New(`worker not started`)
	ErrAlreadyStarted = errors.New(`worker already started`)
	// ErrMissingImplementation is returned when a local task runs a component
	// no Component was registered for.
	ErrMissingImplementation = errors.New(`missing component implementation`)
)

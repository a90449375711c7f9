package tasks

import (
	"errors"
	"fmt"

	pkgErrors "github.com/ersushantsood/storm/pkg/errors"
	"github.com/ersushantsood/storm/streams/topology"
)

var (
	// ErrInvalidComponent is returned for a component id the topology does not declare.
	ErrInvalidComponent = errors.New(`invalid component`)
	// ErrMissingStream is returned when a component does not declare the requested stream.
	ErrMissingStream = errors.New(`missing stream`)
	// ErrBrokenAssignment means this task is missing from the task assignment. The
	// deployment is inconsistent and the task must not keep running.
	ErrBrokenAssignment = errors.New(`broken task assignment`)
	// ErrNotImplemented is returned by the subscribed state operations.
	ErrNotImplemented = errors.New(`not implemented`)
)

// MissingStreamError matches ErrMissingStream and, when the component itself is
// unknown, also ErrInvalidComponent through Unwrap.
type MissingStreamError struct {
	Component topology.ComponentID
	Stream    topology.StreamID
	cause     error
}

func (e *MissingStreamError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf(`stream %d of component %d: %s`, e.Stream, e.Component, e.cause)
	}

	return fmt.Sprintf(`%s: component %d does not declare stream %d`, ErrMissingStream, e.Component, e.Stream)
}

func (e *MissingStreamError) Is(target error) bool {
	return target == ErrMissingStream
}

func (e *MissingStreamError) Unwrap() error {
	return e.cause
}

// Skips location, WrapWithFrameSkip and the helper so the error points at the failed lookup.
const callerFrame = 3

func invalidComponent(id topology.ComponentID) error {
	return pkgErrors.WrapWithFrameSkip(ErrInvalidComponent, fmt.Sprintf(`component %d is not declared`, id), callerFrame)
}

func brokenAssignment(msg string) error {
	return pkgErrors.WrapWithFrameSkip(ErrBrokenAssignment, msg, callerFrame)
}

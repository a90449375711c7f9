// Package errors builds errors that carry the function, file and line they were
// created at. Wrapped errors keep their cause reachable through the standard
// errors.Is and errors.As.
package errors

import (
	"fmt"
	"runtime"
)

func New(msg string) error {
	return fmt.Errorf("%s %s ", msg, location(2))
}

// Errorf formats like fmt.Errorf and appends the location. %w verbs are kept.
func Errorf(format string, a ...interface{}) error {
	return fmt.Errorf(format+" %s", append(a, location(2))...)
}

// Wrap puts msg and the location in front of err.
func Wrap(err error, msg string) error {
	return fmt.Errorf("%s %s \ncaused by: %w ", msg, location(2), err)
}

func Wrapf(err error, format string, a ...interface{}) error {
	return fmt.Errorf("%s %s \ncaused by: %w ", fmt.Sprintf(format, a...), location(2), err)
}

// WrapWithFrameSkip is Wrap for error constructors. skip counts frames from
// location itself, so a constructor called directly by the failing code passes 3.
func WrapWithFrameSkip(err error, msg string, skip int) error {
	return fmt.Errorf("%s %s \ncaused by: %w ", msg, location(skip), err)
}

func location(skip int) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return `at unknown`
	}

	return fmt.Sprintf("at %s\n\t%s:%d", runtime.FuncForPC(pc).Name(), file, line)
}

package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by a collector matches exactly one of
// these with errors.Is.
var (
	ErrDataUnavailable     = errors.New("data unavailable")
	ErrToolNotFound        = errors.New("diagnostic tool not found")
	ErrToolExecutionFailed = errors.New("diagnostic tool failed")
	ErrLogParseFailed      = errors.New("diagnostic log could not be parsed")
	ErrLaunchFailed        = errors.New("diagnostic launch failed")
	ErrLogUnavailable      = errors.New("diagnostic log unavailable")
	ErrCaptureInProgress   = errors.New("capture already in progress")
)

// DiagError carries the kind, the operation and the file involved in a failure.
type DiagError struct {
	Kind error  // one of the Err* sentinels
	Op   string // "smart capture", "read memory log", ...
	Path string // executable or log file, if any
	Err  error  // underlying cause, may be nil
}

func (e *DiagError) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the error kind.
func (e *DiagError) Is(target error) bool { return target == e.Kind }

func (e *DiagError) Unwrap() error { return e.Err }

// NewDiagError builds a DiagError of the given kind.
func NewDiagError(kind error, op, path string, err error) *DiagError {
	return &DiagError{Kind: kind, Op: op, Path: path, Err: err}
}

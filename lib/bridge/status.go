package bridge

import (
	"errors"
	"fmt"

	"nbkv/lib/engine"
)

// --------------------------------------------------------------------------
// Status Codes
// --------------------------------------------------------------------------

type StatusCode uint8

const (
	StatusOK           StatusCode = iota // engine call succeeded
	StatusNotFound                       // read miss, a positive signal
	StatusIOError                        // engine-level failure
	StatusInvalidState                   // operation on a closed/unopened handle
)

func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "NotFound"
	case StatusIOError:
		return "IOError"
	case StatusInvalidState:
		return "InvalidState"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Status
// --------------------------------------------------------------------------

// Status is the outcome of a single engine call. It is produced exactly once
// during a task's background phase and immutable afterwards.
type Status struct {
	code StatusCode
	msg  string
}

func okStatus() Status {
	return Status{code: StatusOK}
}

// statusFromErr maps an engine error into a Status.
func statusFromErr(err error) Status {
	switch {
	case err == nil:
		return okStatus()
	case errors.Is(err, engine.ErrNotFound):
		return Status{code: StatusNotFound}
	case errors.Is(err, engine.ErrClosed):
		return Status{code: StatusInvalidState, msg: err.Error()}
	default:
		return Status{code: StatusIOError, msg: err.Error()}
	}
}

func (s Status) OK() bool {
	return s.code == StatusOK
}

func (s Status) NotFound() bool {
	return s.code == StatusNotFound
}

// failed reports whether the status translates into a callback error. A read
// miss is not a failure.
func (s Status) failed() bool {
	return s.code == StatusIOError || s.code == StatusInvalidState
}

// Err returns the callback's error argument for this status: nil for OK and
// NotFound, a *Error otherwise.
func (s Status) Err() error {
	if !s.failed() {
		return nil
	}
	return &Error{Code: s.code, Msg: s.msg}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the error type surfaced to callbacks. It wraps a status code and
// the engine's message.
type Error struct {
	Code StatusCode
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("nbkv: %s: %s", e.Code, e.Msg)
}

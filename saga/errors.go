package saga

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolViolation marks a resume value whose kind does not match the
	// pending request. It indicates a driver bug, never a saga author error.
	ErrProtocolViolation = errors.New("saga: protocol violation")
	// ErrSagaCompleted is returned when a saga that must run forever returns.
	ErrSagaCompleted = errors.New("saga: saga completed")
	// ErrNotStarted is returned by Advance before Start has been called.
	ErrNotStarted = errors.New("saga: driver not started")
	// ErrAlreadyStarted is returned when Start is called a second time.
	ErrAlreadyStarted = errors.New("saga: driver already started")
	// ErrReentrantAdvance is returned when the driver is resumed while it is
	// still draining a previous call.
	ErrReentrantAdvance = errors.New("saga: reentrant advance")
	// ErrDriverFailed wraps the first failure for every call made after it.
	ErrDriverFailed = errors.New("saga: driver failed")
	// ErrDriverClosed is returned by calls made after Close.
	ErrDriverClosed = errors.New("saga: driver closed")
	// ErrResponseNotEvent is raised by ResumeAfterCmd when the saga's event
	// type cannot hold a Response.
	ErrResponseNotEvent = errors.New("saga: event type cannot carry a response")
	// ErrPayloadType is raised by ResumeAfterCmd when a response payload has a
	// different type than the caller asked for.
	ErrPayloadType = errors.New("saga: unexpected response payload type")
)

// ProtocolViolation reports a mismatch between the pending request and the
// value the driver resumed the saga with. Want and Got name the request
// kinds: "none", "take" or "getState".
type ProtocolViolation struct {
	Want string
	Got  string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("saga: protocol violation: suspended on %s, resumed with %s", e.Want, e.Got)
}

// Is lets errors.Is match ErrProtocolViolation.
func (e *ProtocolViolation) Is(target error) bool {
	return target == ErrProtocolViolation
}

// PanicError carries a value a saga body panicked with, together with the
// stack of the saga at that point.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("saga: panic: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

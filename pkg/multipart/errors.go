package multipart

import (
	"errors"
)

// ErrInvalidState is matched (errors.Is) by every misuse of an Encoder:
// building an empty body, adding parts after Build, building twice or
// adding a file that does not exist.
var ErrInvalidState = errors.New("invalid state")

var (
	ErrNoParts      = &StateError{Msg: "No parts defined yet"}
	ErrAlreadyBuilt = &StateError{Msg: "body already built"}
	ErrClosed       = errors.New("multipart body is closed")
)

// StateError is a precondition violation on an Encoder.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string {
	return e.Msg
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// StreamError is returned from the body reader when a part could not be
// produced, e.g. the file vanished or turned out to be a directory.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return "error while generating multi parts: " + e.Err.Error()
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

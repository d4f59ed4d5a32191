// Package errs implements the error taxonomy every dispatcher boundary
// classifies failures into before publishing a result.
package errs

import "fmt"

// Kind is one of the error classes a protocol run or config load can
// fail with.
type Kind string

const (
	ConfigError     Kind = "ConfigError"
	BusUnavailable  Kind = "BusUnavailable"
	BadRequest      Kind = "BadRequest"
	NoShare         Kind = "NoShare"
	TransportError  Kind = "TransportError"
	DecodeError     Kind = "DecodeError"
	DkgFailure      Kind = "DkgFailure"
	SignFailure     Kind = "SignFailure"
)

// Error wraps an underlying failure with the Kind the controller uses to
// decide how to surface it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, and reports ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return "", false
	}
	return e.Kind, true
}

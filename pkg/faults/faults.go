// Package faults defines the error taxonomy shared by the pipeline.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindTransport     Kind = "E_TRANSPORT"
	KindParse         Kind = "E_PARSE"
	KindConfiguration Kind = "E_CONFIGURATION"
	KindNotFound      Kind = "E_NOT_FOUND"
	KindInternal      Kind = "E_INTERNAL"
)

// Error wraps a failure with its kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind alone: errors.Is(err, &Error{Kind: KindParse}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

func wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Transport(op string, err error) *Error     { return wrap(KindTransport, op, err) }
func Parse(op string, err error) *Error         { return wrap(KindParse, op, err) }
func Configuration(op string, err error) *Error { return wrap(KindConfiguration, op, err) }
func NotFound(op string, err error) *Error      { return wrap(KindNotFound, op, err) }
func Internal(op string, err error) *Error      { return wrap(KindInternal, op, err) }

// KindOf returns the kind of the outermost *Error in the chain, or
// KindInternal when err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// Is reports whether err carries a fault of the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

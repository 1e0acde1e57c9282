// Package failure defines the error kinds surfaced at the Save and
// Recognize action boundaries.
package failure

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	Unknown Kind = iota
	IO
	Decode
	ModelLoad
	Inference
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "IOFailure"
	case Decode:
		return "DecodeFailure"
	case ModelLoad:
		return "ModelLoadFailure"
	case Inference:
		return "InferenceFailure"
	default:
		return "UnknownFailure"
	}
}

// Error tags an underlying error with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Cause lets errors.Cause from pkg/errors reach the wrapped error.
func (e *Error) Cause() error { return e.Err }

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with msg and tags it with kind. A nil err yields an error
// carrying msg alone.
func New(kind Kind, err error, msg string) error {
	if err == nil {
		return &Error{Kind: kind, Err: errors.New(msg)}
	}
	return &Error{Kind: kind, Err: errors.Wrap(err, msg)}
}

// Newf is New with a format string.
func Newf(kind Kind, err error, format string, args ...interface{}) error {
	return New(kind, err, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var f *Error
	if stderrors.As(err, &f) {
		return f.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

package sema

import (
	"fmt"

	"ripple/internal/source"
	"ripple/internal/types"
)

// TypeInferenceError reports that a type could not be deduced for a node, or
// that a deduced type violates a rule that is not a two-type mismatch.
type TypeInferenceError struct {
	Span source.Span
	Type types.Type
	Msg  string
}

func (e *TypeInferenceError) Error() string {
	return "TypeInferenceError: " + e.Msg
}

func inferenceErrorf(span source.Span, t types.Type, format string, args ...any) error {
	return &TypeInferenceError{Span: span, Type: t, Msg: fmt.Sprintf(format, args...)}
}

// TypeMismatchError reports that two types which must agree do not.
type TypeMismatchError struct {
	Span source.Span
	LHS  types.Type
	RHS  types.Type
	Msg  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("TypeMismatchError: %s vs %s: %s", e.LHS, e.RHS, e.Msg)
}

func mismatchErrorf(span source.Span, lhs, rhs types.Type, format string, args ...any) error {
	return &TypeMismatchError{Span: span, LHS: lhs, RHS: rhs, Msg: fmt.Sprintf(format, args...)}
}

// ArgCountMismatchError reports a call with the wrong number of arguments.
type ArgCountMismatchError struct {
	Span source.Span
	Msg  string
}

func (e *ArgCountMismatchError) Error() string {
	return "ArgCountMismatchError: " + e.Msg
}

func argCountErrorf(span source.Span, format string, args ...any) error {
	return &ArgCountMismatchError{Span: span, Msg: fmt.Sprintf(format, args...)}
}

// InvalidIdentifierError reports an identifier that is syntactically present
// but not usable in its position, e.g. a bad cover! label.
type InvalidIdentifierError struct {
	Span source.Span
	Msg  string
}

func (e *InvalidIdentifierError) Error() string {
	return "InvalidIdentifierError: " + e.Msg
}

func invalidIdentifierErrorf(span source.Span, format string, args ...any) error {
	return &InvalidIdentifierError{Span: span, Msg: fmt.Sprintf(format, args...)}
}

// InternalError reports a broken invariant inside the checker itself. Seeing
// one is a bug, not a user error.
type InternalError struct {
	Span source.Span
	Msg  string
}

func (e *InternalError) Error() string {
	return "InternalError: " + e.Msg
}

func internalErrorf(span source.Span, format string, args ...any) error {
	return &InternalError{Span: span, Msg: fmt.Sprintf(format, args...)}
}

// ErrorSpan extracts the source span carried by any of the checker error
// kinds, for diagnostic rendering.
func ErrorSpan(err error) (source.Span, bool) {
	switch e := err.(type) {
	case *TypeInferenceError:
		return e.Span, true
	case *TypeMismatchError:
		return e.Span, true
	case *ArgCountMismatchError:
		return e.Span, true
	case *InvalidIdentifierError:
		return e.Span, true
	case *InternalError:
		return e.Span, true
	}
	return source.Span{}, false
}

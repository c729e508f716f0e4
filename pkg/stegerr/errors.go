// Package stegerr defines the error taxonomy shared by the codec, the carrier
// adapters and the front ends.
//
// Callers should branch on Kind rather than matching error strings. Error()
// output is meant for humans and may change.
package stegerr

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
type Kind string

const (
	KindNotFound         Kind = "NotFound"
	KindCapacityExceeded Kind = "CapacityExceeded"
	KindInvalidFormat    Kind = "InvalidFormat"
	KindEncoding         Kind = "EncodingError"
	KindIO               Kind = "IOError"
	KindCanceled         Kind = "Canceled"
)

// Error is the structured error returned by every exported operation.
//
// Op names the operation ("hide image", "reveal audio"). Target names the
// failing operand: a file path, or "buffer" for in-memory carriers.
type Error struct {
	Kind    Kind
	Op      string
	Target  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	s := e.Message
	if e.Target != "" {
		s = e.Target + ": " + s
	}
	if e.Op != "" {
		s = e.Op + " " + s
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns an *Error without a cause.
func New(kind Kind, op, target, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Target: target, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error around cause. A nil cause behaves like New.
func Wrap(kind Kind, op, target string, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Target: target, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithTarget fills in the operand of a structured error that was produced
// against an in-memory carrier. Other errors are returned unchanged.
func WithTarget(err error, op, target string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	cp := *e
	if cp.Target == "" || cp.Target == Buffer {
		cp.Target = target
	}
	if op != "" {
		cp.Op = op
	}
	return &cp
}

// Buffer is the Target used for carriers passed in memory.
const Buffer = "buffer"

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

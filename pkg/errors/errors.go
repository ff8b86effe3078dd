// Package errors provides structured error handling for Zoetrope.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDelayExpression is the sentinel matched by every delay
// resolution failure. Use errors.Is to test for it.
var ErrInvalidDelayExpression = errors.New("invalid delay expression")

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindDelay indicates a timeline delay that could not be resolved.
	KindDelay
	// KindConfig indicates a timeline document or option error.
	KindConfig
	// KindEasing indicates an easing function that could not be built.
	KindEasing
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindFrame indicates a failure inside a frame or timer callback.
	KindFrame
)

func (k ErrorKind) String() string {
	switch k {
	case KindDelay:
		return "delay"
	case KindConfig:
		return "config"
	case KindEasing:
		return "easing"
	case KindPanic:
		return "panic"
	case KindFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// ZoetropeError represents a structured error.
type ZoetropeError struct {
	// Op is the operation that failed (e.g., "config.Load").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Path is the file the error relates to, if applicable.
	Path string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *ZoetropeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s [%s] path=%s: %v", e.Op, e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *ZoetropeError) Unwrap() error {
	return e.Err
}

// DelayError reports a timeline entry whose delay could not be resolved.
// It always unwraps to ErrInvalidDelayExpression.
type DelayError struct {
	// Index is the position of the entry in the timeline.
	Index int
	// Expr is the offending delay expression.
	Expr string
	// Reason describes what was wrong with Expr.
	Reason string
}

func (e *DelayError) Error() string {
	return fmt.Sprintf("%v at entry %d (%q): %s", ErrInvalidDelayExpression, e.Index, e.Expr, e.Reason)
}

func (e *DelayError) Unwrap() error {
	return ErrInvalidDelayExpression
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "animation.StepFrames").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by Zoetrope.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *ZoetropeError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}

// Is reports whether any error in err's tree matches target.
// It is a convenience re-export so callers need only one errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

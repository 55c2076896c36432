package futures

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies a [FuturesError], mirroring the source library's
// error_category taxonomy.
type ErrorCategory int

const (
	// CategoryBrokenPromise indicates the producer side of a shared state
	// was destroyed (or abandoned) before a value or error was set.
	CategoryBrokenPromise ErrorCategory = iota
	// CategoryFutureAlreadyRetrieved indicates GetFuture was called more
	// than once on the same [Promise] or [PackagedTask].
	CategoryFutureAlreadyRetrieved
	// CategoryPromiseAlreadySatisfied indicates SetValue/SetError was
	// called on a shared state that was already ready.
	CategoryPromiseAlreadySatisfied
	// CategoryNoState indicates an operation on an invalid (moved-from,
	// already-consumed, or zero-value) future or promise.
	CategoryNoState
	// CategoryUnwrapNotPossible indicates a dynamic [Then] dispatch point
	// could not match any continuation-unwrapping strategy.
	CategoryUnwrapNotPossible
)

// String returns a human-readable category name.
func (c ErrorCategory) String() string {
	switch c {
	case CategoryBrokenPromise:
		return "broken_promise"
	case CategoryFutureAlreadyRetrieved:
		return "future_already_retrieved"
	case CategoryPromiseAlreadySatisfied:
		return "promise_already_satisfied"
	case CategoryNoState:
		return "no_state"
	case CategoryUnwrapNotPossible:
		return "unwrap_not_possible"
	default:
		return fmt.Sprintf("unknown_category(%d)", int(c))
	}
}

// FuturesError is the common error type for every producer/consumer
// contract violation raised by this package. It carries a [Cause] so
// wrapped panics and nested failures survive [errors.Is]/[errors.As].
type FuturesError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *FuturesError) Error() string {
	if e.Message == "" {
		return e.Category.String()
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any, for [errors.Is]/[errors.As].
func (e *FuturesError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *FuturesError of the same category,
// so errors.Is can match by category rather than requiring pointer
// identity with one specific sentinel instance.
func (e *FuturesError) Is(target error) bool {
	var other *FuturesError
	if errors.As(target, &other) {
		return other.Category == e.Category
	}
	return false
}

func newError(category ErrorCategory, message string, cause error) *FuturesError {
	return &FuturesError{Category: category, Message: message, Cause: cause}
}

var (
	// ErrBrokenPromise is returned from Get/Wait when the producer side of
	// a shared state was destroyed (or abandoned) without ever setting a
	// value or error.
	ErrBrokenPromise = newError(CategoryBrokenPromise, "futures: broken promise", nil)
	// ErrFutureAlreadyRetrieved is returned from Promise.GetFuture and
	// PackagedTask.GetFuture after the first successful call.
	ErrFutureAlreadyRetrieved = newError(CategoryFutureAlreadyRetrieved, "futures: future already retrieved", nil)
	// ErrPromiseAlreadySatisfied is returned from SetValue/SetError when
	// the shared state is already ready.
	ErrPromiseAlreadySatisfied = newError(CategoryPromiseAlreadySatisfied, "futures: promise already satisfied", nil)
	// ErrNoState is returned from operations on an invalid future or
	// promise (zero value, moved-from, or already consumed).
	ErrNoState = newError(CategoryNoState, "futures: no associated state", nil)
	// ErrUnwrapNotPossible is the error for a dynamic continuation
	// dispatch that finds no unwrap strategy matching the antecedent's
	// result shape. The Then family is statically typed, so no function
	// in this package currently returns it.
	ErrUnwrapNotPossible = newError(CategoryUnwrapNotPossible, "futures: continuation unwrapping not possible", nil)
)

// PanicError wraps a value recovered from a panicking callable (a
// [PackagedTask], a [Then] continuation, or a parallel-algorithm leaf),
// so it can be inspected programmatically via [errors.As] and, when the
// panic value was itself an error, matched with [errors.Is].
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("futures: panic recovered: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error,
// enabling errors.Is/errors.As to reach through a recovered panic.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// AggregateError collects multiple child errors, e.g. from
// [WhenAllFuture.Values] when one or more children failed, or from a
// parallel ForEach whose two halves of a split both failed.
type AggregateError struct {
	Errors []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "futures: aggregate error (no children)"
	}
	return fmt.Sprintf("futures: %d aggregated errors, first: %v", len(e.Errors), e.Errors[0])
}

// Unwrap returns every aggregated error, enabling multi-error matching via
// errors.Is/errors.As (Go 1.20+ multi-error Unwrap).
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Is reports whether target is an *AggregateError, regardless of contents.
func (e *AggregateError) Is(target error) bool {
	var other *AggregateError
	return errors.As(target, &other)
}

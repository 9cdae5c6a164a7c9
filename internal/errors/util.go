package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// stackTracer is implemented by errors that carry the stack they were created with.
type stackTracer interface {
	ErrorStack() string
}

type multiUnwrapper interface {
	Unwrap() []error
}

// visit calls fn for err and every error it wraps, descending into each branch of a joined error.
// It returns false once fn does.
func visit(err error, fn func(error) bool) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if !fn(err) {
			return false
		}

		if multi, ok := err.(multiUnwrapper); ok {
			for _, branch := range multi.Unwrap() {
				if !visit(branch, fn) {
					return false
				}
			}

			return true
		}
	}

	return true
}

// ErrorStack returns the stack traces carried by err and the errors it wraps, one after another.
func ErrorStack(err error) string {
	var stacks []string

	visit(err, func(err error) bool {
		if tracer, ok := err.(stackTracer); ok {
			stacks = append(stacks, tracer.ErrorStack())
		}

		return true
	})

	return strings.Join(stacks, "\n")
}

// ContainsStackTrace reports whether err or one of the errors it wraps carries a stack trace.
func ContainsStackTrace(err error) bool {
	return !visit(err, func(err error) bool {
		_, ok := err.(stackTracer)
		return !ok
	})
}

// IsContextCanceled returns true for errors caused by a cancelled context, which end a run without failing a task.
func IsContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Recover turns a panic into an error passed to onPanic. Call it deferred.
func Recover(onPanic func(cause error)) {
	rec := recover()
	if rec == nil {
		return
	}

	err, ok := rec.(error)
	if !ok {
		err = fmt.Errorf("%v", rec) //nolint:err113
	}

	onPanic(New(err))
}

// UnwrapMultiErrors flattens the joined errors found in err, depth first. An error that joins nothing is
// returned on its own.
func UnwrapMultiErrors(err error) []error {
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		multi, ok := cur.(multiUnwrapper)
		if !ok {
			continue
		}

		var flat []error
		for _, branch := range multi.Unwrap() {
			flat = append(flat, UnwrapMultiErrors(branch)...)
		}

		return flat
	}

	return []error{err}
}

// Package errors contains helper functions for wrapping errors with stack traces, stack output, and panic recovery.
package errors

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/urfave/cli/v2"
)

// New creates a new instance of Error.
// If the given value is an error that already carries a stack trace it is returned as is.
func New(val any) error {
	if val == nil {
		return nil
	}

	if err, ok := val.(error); ok && ContainsStackTrace(err) {
		return err
	}

	return goerrors.Wrap(val, 1)
}

// Errorf creates a new error with the given format and values and wraps it in an Error type that contains the stack trace.
// It can be used instead of `fmt.Errorf`, the `%w` verb keeps the wrapped error reachable by `errors.Is`/`errors.As`.
func Errorf(format string, vals ...any) error {
	err := fmt.Errorf(format, vals...) //nolint:err113

	return goerrors.Wrap(err, 1)
}

// ErrorWithExitCode is a custom error that is used to specify the app exit code.
type ErrorWithExitCode struct {
	Err      error
	ExitCode int
}

func (err ErrorWithExitCode) Error() string {
	return err.Err.Error()
}

func (err ErrorWithExitCode) Unwrap() error {
	return err.Err
}

// ExitStatus returns the exit code the app should terminate with.
func (err ErrorWithExitCode) ExitStatus() (int, error) {
	return err.ExitCode, nil
}

// WithPanicHandling wraps a cli action to handle panics by returning them as an error with a stack trace.
func WithPanicHandling(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx *cli.Context) (err error) {
		defer Recover(func(cause error) {
			err = cause
		})

		return action(ctx)
	}
}

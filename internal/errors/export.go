package errors

import (
	"errors"
	"os/exec"
)

// As is a shortcut for the standard `errors.As`, so callers only need to import this package.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is a shortcut for the standard `errors.Is`.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap is a shortcut for the standard `errors.Unwrap`.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// ExitCode returns the exit code carried by the given error. It understands `ErrorWithExitCode`,
// anything implementing `ExitStatus() (int, error)` and `*exec.ExitError`. The error is returned
// back when no exit code can be determined.
func ExitCode(err error) (int, error) {
	var exitStatus interface{ ExitStatus() (int, error) }
	if errors.As(err, &exitStatus) {
		return exitStatus.ExitStatus()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return 0, err
}

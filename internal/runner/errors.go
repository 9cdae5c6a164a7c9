package runner

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LaunchError is returned when the child process of a task cannot be started. It aborts the run.
type LaunchError struct {
	Err  error
	Task string
}

func (err LaunchError) Error() string {
	return fmt.Sprintf("failed to launch task %s: %v", err.Task, err.Err)
}

func (err LaunchError) Unwrap() error {
	return err.Err
}

// TaskAlreadyRunningError is returned when a task is launched while a process for it is still running.
type TaskAlreadyRunningError string

func (err TaskAlreadyRunningError) Error() string {
	return "task " + string(err) + " is already running"
}

// TaskFailuresError lists the tasks that failed, in completion order.
type TaskFailuresError struct {
	Tasks []string
}

func (err TaskFailuresError) Error() string {
	if len(err.Tasks) == 1 {
		return "There were errors in task " + err.Tasks[0]
	}

	return fmt.Sprintf("There were errors in %d tasks: %s", len(err.Tasks), strings.Join(err.Tasks, ", "))
}

// InterruptError is returned when the run was interrupted. It is never recorded as a task failure.
type InterruptError struct {
	Cause  error
	Signal os.Signal
	// NotStarted lists the tasks that were never launched because of the interrupt.
	NotStarted []string
}

func (err InterruptError) Error() string {
	msg := "Run interrupted"

	if err.Signal != nil {
		msg += " by " + cases.Title(language.English).String(err.Signal.String()) + " signal"
	}

	if len(err.NotStarted) > 0 {
		msg += fmt.Sprintf(", %d tasks not started: %s", len(err.NotStarted), strings.Join(err.NotStarted, ", "))
	}

	return msg
}

func (err InterruptError) Unwrap() error {
	return err.Cause
}

// ExitStatus returns the exit code the app should terminate with.
func (err InterruptError) ExitStatus() (int, error) {
	return 1, nil
}

// WaitError is returned when the state of a child process cannot be read.
type WaitError struct {
	Err  error
	Task string
}

func (err WaitError) Error() string {
	return fmt.Sprintf("failed to wait for task %s: %v", err.Task, err.Err)
}

func (err WaitError) Unwrap() error {
	return err.Err
}

package task

import (
	"fmt"
	"strings"
)

// InvalidCommandError is returned when a task command cannot be parsed.
type InvalidCommandError struct {
	Err     error
	Task    string
	Command string
}

func (err InvalidCommandError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("invalid command %q for task %s: %v", err.Command, err.Task, err.Err)
	}

	return fmt.Sprintf("task %s has an empty command", err.Task)
}

func (err InvalidCommandError) Unwrap() error {
	return err.Err
}

// ExecutableNotFoundError is returned when the check of a task does not find its executable.
type ExecutableNotFoundError struct {
	Err        error
	Task       string
	Executable string
}

func (err ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("executable %s of task %s not found", err.Executable, err.Task)
}

func (err ExecutableNotFoundError) Unwrap() error {
	return err.Err
}

// WorkingDirNotFoundError is returned when the working directory of a task does not exist.
type WorkingDirNotFoundError struct {
	Task string
	Dir  string
}

func (err WorkingDirNotFoundError) Error() string {
	return fmt.Sprintf("working directory %s of task %s does not exist", err.Dir, err.Task)
}

// CommandFailedError is returned when the command of a task exits unsuccessfully.
type CommandFailedError struct {
	Err     error
	Task    string
	Command string
}

func (err CommandFailedError) Error() string {
	return fmt.Sprintf("command %q of task %s failed: %v", err.Command, err.Task, err.Err)
}

func (err CommandFailedError) Unwrap() error {
	return err.Err
}

// DuplicateTaskError is returned when two tasks share a name.
type DuplicateTaskError string

func (err DuplicateTaskError) Error() string {
	return "task " + string(err) + " is declared more than once"
}

// UnknownTaskError is returned when a task name is not in the registry.
type UnknownTaskError string

func (err UnknownTaskError) Error() string {
	return "unknown task " + string(err)
}

// NoTasksSelectedError is returned when the generate filter selects no task.
type NoTasksSelectedError struct {
	Generate []string
}

func (err NoTasksSelectedError) Error() string {
	return fmt.Sprintf("no tasks match generate [%s]", strings.Join(err.Generate, ", "))
}

package options

import (
	"fmt"
	"strings"

	"github.com/gruntwork-io/batchrun/internal/errors"
)

// ErrNoConfigFiles is returned when no config file was given on the command line.
var ErrNoConfigFiles = errors.New("at least one config file must be given")

// InvalidParallelTaskCountError is returned for a negative parallel task count.
type InvalidParallelTaskCountError int

func (err InvalidParallelTaskCountError) Error() string {
	return fmt.Sprintf("invalid parallel task count %d, must be a positive number", int(err))
}

// SubtaskGenerateError is returned when a subtask is not restricted to exactly one task.
type SubtaskGenerateError []string

func (err SubtaskGenerateError) Error() string {
	return fmt.Sprintf("a subtask runs exactly one task, got generate list %q", strings.Join(err, ","))
}

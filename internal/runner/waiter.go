package runner

import "github.com/gruntwork-io/batchrun/internal/errors"

// ErrNoActiveTasks is returned when waiting on an empty active set.
var ErrNoActiveTasks = errors.New("no active tasks to wait for")

// Waiter blocks until one of the running tasks terminates.
type Waiter interface {
	// Wait returns a task of the active set whose termination has been recorded with SetStatus.
	Wait(active *ActiveSet) (*RunningTask, error)
}

//go:build unix

package runner

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/gruntwork-io/batchrun/internal/errors"
	ossignal "github.com/gruntwork-io/batchrun/internal/os/signal"
)

// ProcessWaiter waits for child processes to exit. Each active task is polled without blocking and,
// if none has exited, the waiter sleeps until the next child state change. Only tracked children are
// reaped, so other children of this process are left alone.
type ProcessWaiter struct {
	childExit chan os.Signal
}

// NewProcessWaiter registers for child exit notifications. Close must be called once the waiter is no longer used.
func NewProcessWaiter() *ProcessWaiter {
	waiter := &ProcessWaiter{
		childExit: make(chan os.Signal, 1),
	}

	// Registered before the first poll so no exit between poll and sleep is missed.
	signal.Notify(waiter.childExit, ossignal.ChildExitSignal)

	return waiter
}

// Close stops the child exit notifications.
func (waiter *ProcessWaiter) Close() {
	signal.Stop(waiter.childExit)
}

// Wait implements Waiter.
func (waiter *ProcessWaiter) Wait(active *ActiveSet) (*RunningTask, error) {
	if active.Len() == 0 {
		return nil, ErrNoActiveTasks
	}

	for {
		for _, task := range active.Tasks() {
			exited, err := reap(task)
			if err != nil {
				return nil, err
			}

			if exited {
				return task, nil
			}
		}

		<-waiter.childExit
	}
}

// reap collects the exit status of the task process if it has terminated.
func reap(task *RunningTask) (bool, error) {
	if task.Exited() {
		return true, nil
	}

	var status unix.WaitStatus

	for {
		pid, err := unix.Wait4(task.Process.Pid(), &status, unix.WNOHANG, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return false, errors.New(WaitError{Task: task.Name, Err: err})
		}

		if pid == 0 {
			return false, nil
		}

		task.SetStatus(exitStatusFromWaitStatus(status))

		return true, nil
	}
}

func exitStatusFromWaitStatus(status unix.WaitStatus) ExitStatus {
	if status.Signaled() {
		return ExitStatus{Code: -1, Signal: status.Signal().String()}
	}

	return ExitStatus{Code: status.ExitStatus()}
}

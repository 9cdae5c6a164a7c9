//go:build windows

package runner

import (
	"sync"
)

// ProcessWaiter waits for child processes to exit. Windows has no child exit signal, so one goroutine
// per task waits on its process handle and reports to a shared channel.
type ProcessWaiter struct {
	exited  chan *RunningTask
	watched map[*RunningTask]struct{}
	mu      sync.Mutex
}

// NewProcessWaiter returns a new waiter. Close must be called once the waiter is no longer used.
func NewProcessWaiter() *ProcessWaiter {
	return &ProcessWaiter{
		exited:  make(chan *RunningTask),
		watched: make(map[*RunningTask]struct{}),
	}
}

// Close is a no-op on windows, the wait goroutines end with their processes.
func (waiter *ProcessWaiter) Close() {}

// Wait implements Waiter.
func (waiter *ProcessWaiter) Wait(active *ActiveSet) (*RunningTask, error) {
	if active.Len() == 0 {
		return nil, ErrNoActiveTasks
	}

	waiter.mu.Lock()

	for _, task := range active.Tasks() {
		if _, ok := waiter.watched[task]; ok {
			continue
		}

		waiter.watched[task] = struct{}{}

		go func() {
			status := ExitStatus{Code: -1}

			if state, err := task.Process.Wait(); err == nil {
				status = ExitStatus{Code: state.ExitCode()}
			}

			task.SetStatus(status)
			waiter.exited <- task
		}()
	}

	waiter.mu.Unlock()

	task := <-waiter.exited

	waiter.mu.Lock()
	delete(waiter.watched, task)
	waiter.mu.Unlock()

	return task, nil
}

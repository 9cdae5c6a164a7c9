package runner_test

import (
	"context"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/runner"
	"github.com/gruntwork-io/batchrun/pkg/log"
)

const fakeWaitTimeout = 5 * time.Second

func newTestLogger(w io.Writer) log.Logger {
	formatter := log.NewPrettyFormatter()
	formatter.DisableColors = true
	formatter.DisableTimestamp = true

	return log.New(log.WithOutput(w), log.WithLevel(log.InfoLevel), log.WithFormatter(formatter))
}

type fakeProcess struct {
	signaled chan os.Signal
	signals  []os.Signal
	pid      int
	mu       sync.Mutex
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{
		pid:      pid,
		signaled: make(chan os.Signal, 1),
	}
}

func (process *fakeProcess) Pid() int {
	return process.pid
}

func (process *fakeProcess) Signal(sig os.Signal) error {
	process.mu.Lock()
	process.signals = append(process.signals, sig)
	process.mu.Unlock()

	select {
	case process.signaled <- sig:
	default:
	}

	return nil
}

func (process *fakeProcess) Signals() []os.Signal {
	process.mu.Lock()
	defer process.mu.Unlock()

	return slices.Clone(process.signals)
}

func (process *fakeProcess) Wait() (*os.ProcessState, error) {
	return nil, nil
}

func (process *fakeProcess) Release() error {
	return nil
}

// fakeLauncher records launches and hands out fake processes.
type fakeLauncher struct {
	failOn     map[string]error
	afterStart func(name string)
	processes  map[string]*fakeProcess
	launched   []string
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{
		failOn:    make(map[string]error),
		processes: make(map[string]*fakeProcess),
	}
}

func (launcher *fakeLauncher) Launch(_ context.Context, _ log.Logger, name string) (*runner.RunningTask, error) {
	if err, ok := launcher.failOn[name]; ok {
		return nil, errors.New(runner.LaunchError{Task: name, Err: err})
	}

	launcher.launched = append(launcher.launched, name)

	process := newFakeProcess(len(launcher.launched))
	launcher.processes[name] = process

	if launcher.afterStart != nil {
		launcher.afterStart(name)
	}

	return &runner.RunningTask{
		Name:    name,
		Process: process,
		LogPath: "/logs/" + name + ".log",
		Started: time.Now(),
	}, nil
}

// fakeWaiter completes active tasks in a fixed order. Tasks missing from the order complete in launch
// order. With untilSignaled set a task only completes once its process received a signal.
type fakeWaiter struct {
	statuses      map[string]runner.ExitStatus
	order         []string
	untilSignaled bool
}

func (waiter *fakeWaiter) Wait(active *runner.ActiveSet) (*runner.RunningTask, error) {
	if active.Len() == 0 {
		return nil, runner.ErrNoActiveTasks
	}

	task := active.Tasks()[0]

	for _, name := range waiter.order {
		if next, ok := active.Get(name); ok {
			task = next
			break
		}
	}

	if waiter.untilSignaled {
		process := task.Process.(*fakeProcess)

		select {
		case sig := <-process.signaled:
			task.SetStatus(runner.ExitStatus{Code: -1, Signal: sig.String()})
			return task, nil
		case <-time.After(fakeWaitTimeout):
			return nil, errors.Errorf("task %s was never signaled", task.Name)
		}
	}

	task.SetStatus(waiter.statuses[task.Name])

	return task, nil
}

func names(prefix string, count int) []string {
	list := make([]string, 0, count)
	for i := range count {
		list = append(list, prefix+string(rune('a'+i)))
	}

	return list
}

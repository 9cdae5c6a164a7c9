package runner

import (
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/gruntwork-io/batchrun/internal/errors"
)

// Process is the handle of a started child process.
type Process interface {
	Pid() int
	Signal(sig os.Signal) error
	Wait() (*os.ProcessState, error)
	Release() error
}

type osProcess struct {
	*os.Process
}

// NewProcess wraps an os.Process so it satisfies Process.
func NewProcess(process *os.Process) Process {
	return osProcess{process}
}

func (process osProcess) Pid() int {
	return process.Process.Pid
}

// ExitStatus is how a child process terminated.
type ExitStatus struct {
	// Signal is the name of the signal that terminated the process, empty if it exited normally.
	Signal string
	Code   int
}

// Success returns true if the process exited normally with code 0.
func (status ExitStatus) Success() bool {
	return status.Code == 0 && status.Signal == ""
}

func (status ExitStatus) String() string {
	if status.Signal != "" {
		return "signal: " + status.Signal
	}

	return "exit status " + strconv.Itoa(status.Code)
}

// RunningTask associates a task name with its child process and log file.
type RunningTask struct {
	Started time.Time
	Process Process
	Log     *os.File
	Name    string
	LogPath string
	Status  ExitStatus

	exited bool
}

// SetStatus records the termination of the process. The status is kept on the record because
// reaping a child directly bypasses the bookkeeping of os/exec.
func (task *RunningTask) SetStatus(status ExitStatus) {
	task.Status = status
	task.exited = true
}

// Exited returns true once the termination of the process has been recorded.
func (task *RunningTask) Exited() bool {
	return task.exited
}

// Result returns the outcome of the finished task.
func (task *RunningTask) Result() Result {
	return Result{
		Name:    task.Name,
		Status:  task.Status,
		LogPath: task.LogPath,
		Started: task.Started,
		Ended:   time.Now(),
	}
}

// Close closes the log file and releases the process handle.
func (task *RunningTask) Close() error {
	errs := &errors.MultiError{}

	if task.Log != nil {
		if err := task.Log.Close(); err != nil {
			errs = errs.Append(errors.New(err))
		}
	}

	if task.Process != nil {
		if err := task.Process.Release(); err != nil {
			errs = errs.Append(errors.New(err))
		}
	}

	return errs.ErrorOrNil()
}

// ActiveSet holds the running tasks by name, in launch order. It is owned by a single scheduler.
type ActiveSet struct {
	tasks map[string]*RunningTask
	order []string
}

// NewActiveSet returns an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{
		tasks: make(map[string]*RunningTask),
	}
}

// Add inserts a running task. A task with the same name must not be running already.
func (set *ActiveSet) Add(task *RunningTask) error {
	if _, ok := set.tasks[task.Name]; ok {
		return errors.New(TaskAlreadyRunningError(task.Name))
	}

	set.tasks[task.Name] = task
	set.order = append(set.order, task.Name)

	return nil
}

// Remove deletes the task with the given name.
func (set *ActiveSet) Remove(name string) {
	if _, ok := set.tasks[name]; !ok {
		return
	}

	delete(set.tasks, name)

	set.order = slices.DeleteFunc(set.order, func(val string) bool { return val == name })
}

// Get returns the running task with the given name.
func (set *ActiveSet) Get(name string) (*RunningTask, bool) {
	task, ok := set.tasks[name]
	return task, ok
}

// Len returns the number of running tasks.
func (set *ActiveSet) Len() int {
	return len(set.tasks)
}

// Names returns the names of the running tasks in launch order.
func (set *ActiveSet) Names() []string {
	return slices.Clone(set.order)
}

// Tasks returns the running tasks in launch order.
func (set *ActiveSet) Tasks() []*RunningTask {
	tasks := make([]*RunningTask, 0, len(set.order))

	for _, name := range set.order {
		tasks = append(tasks, set.tasks[name])
	}

	return tasks
}

// Result is the outcome of one task, from either the parallel or the sequential path.
type Result struct {
	Started time.Time
	Ended   time.Time
	Err     error
	Name    string
	Trace   string
	LogPath string
	Status  ExitStatus
}

// Failed returns true if the task exited unsuccessfully or returned an error.
func (result Result) Failed() bool {
	return result.Err != nil || !result.Status.Success()
}

// Duration returns how long the task ran.
func (result Result) Duration() time.Duration {
	return result.Ended.Sub(result.Started)
}

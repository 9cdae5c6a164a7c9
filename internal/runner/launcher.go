package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/pkg/log"
	"github.com/gruntwork-io/batchrun/telemetry"
	"github.com/gruntwork-io/batchrun/util"
)

const (
	// SubtaskFlag marks an invocation restricted to a single task.
	SubtaskFlag = "--subtask"
	// GenerateFlag selects the task a subtask runs.
	GenerateFlag = "--generate"
	// DefaultConfigFlag passes the replacement of the embedded defaults on to a subtask.
	DefaultConfigFlag = "--default-config"
	// WorkingDirFlag passes the directory relative paths are resolved against on to a subtask.
	WorkingDirFlag = "--working-dir"

	// RunIDEnv carries the id of the batch to every subtask.
	RunIDEnv = "BATCHRUN_RUN_ID"

	logFileExt  = ".log"
	logFilePerm = 0644
)

// Launcher starts the child process of a task.
type Launcher interface {
	Launch(ctx context.Context, l log.Logger, name string) (*RunningTask, error)
}

// ProcessLauncher re-invokes the executable as a subtask restricted to one task.
// Output of the child is written to `<logsDir>/<name>.log`.
type ProcessLauncher struct {
	env           map[string]string
	executable    string
	logsDir       string
	commandPrefix []string
	flags         []string
	configFiles   []string
}

// LauncherOption configures a ProcessLauncher.
type LauncherOption func(*ProcessLauncher)

// WithCommandPrefix sets the command placed before the executable, e.g. a resource manager wrapper.
func WithCommandPrefix(prefix []string) LauncherOption {
	return func(launcher *ProcessLauncher) {
		launcher.commandPrefix = prefix
	}
}

// WithConfigFiles sets the config files passed on to every subtask.
func WithConfigFiles(files []string) LauncherOption {
	return func(launcher *ProcessLauncher) {
		launcher.configFiles = files
	}
}

// WithFlags adds flags placed after the task selection and before the config files of every subtask.
func WithFlags(flags ...string) LauncherOption {
	return func(launcher *ProcessLauncher) {
		launcher.flags = append(launcher.flags, flags...)
	}
}

// WithEnv adds environment variables to every subtask.
func WithEnv(env map[string]string) LauncherOption {
	return func(launcher *ProcessLauncher) {
		for key, val := range env {
			launcher.env[key] = val
		}
	}
}

// NewProcessLauncher returns a launcher for the given executable writing logs to logsDir.
func NewProcessLauncher(executable, logsDir string, opts ...LauncherOption) *ProcessLauncher {
	launcher := &ProcessLauncher{
		executable: executable,
		logsDir:    logsDir,
		env:        make(map[string]string),
	}

	for _, opt := range opts {
		opt(launcher)
	}

	return launcher
}

// Args returns the command line of the subtask running the named task.
func (launcher *ProcessLauncher) Args(name string) []string {
	args := make([]string, 0, len(launcher.commandPrefix)+len(launcher.flags)+len(launcher.configFiles)+4) //nolint:mnd
	args = append(args, launcher.commandPrefix...)
	args = append(args, launcher.executable, SubtaskFlag, GenerateFlag, name)
	args = append(args, launcher.flags...)
	args = append(args, launcher.configFiles...)

	return args
}

// LogPath returns the log file of the named task.
func (launcher *ProcessLauncher) LogPath(name string) string {
	return LogPath(launcher.logsDir, name)
}

// LogPath returns `<logsDir>/<name>.log`.
func LogPath(logsDir, name string) string {
	return util.JoinPath(logsDir, name+logFileExt)
}

// Launch truncates the task log, writes the command line as its first line and starts the subtask
// with stdout and stderr going to the log.
func (launcher *ProcessLauncher) Launch(ctx context.Context, l log.Logger, name string) (*RunningTask, error) {
	var (
		args    = launcher.Args(name)
		logPath = launcher.LogPath(name)
	)

	// *os.File is unbuffered, the command line reaches the file before the child starts.
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, logFilePerm)
	if err != nil {
		return nil, errors.New(LaunchError{Task: name, Err: err})
	}

	if _, err := fmt.Fprintf(logFile, "Command: %s\n", strings.Join(args, " ")); err != nil {
		logFile.Close() //nolint:errcheck
		return nil, errors.New(LaunchError{Task: name, Err: err})
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = append(os.Environ(), launcher.environ(ctx)...)

	l.Infof("Running %s", name)

	if err := cmd.Start(); err != nil {
		logFile.Close() //nolint:errcheck
		return nil, errors.New(LaunchError{Task: name, Err: err})
	}

	l.Debugf("Task %s started with pid %d, log %s", name, cmd.Process.Pid, logPath)

	return &RunningTask{
		Name:    name,
		Process: NewProcess(cmd.Process),
		Log:     logFile,
		LogPath: logPath,
		Started: time.Now(),
	}, nil
}

func (launcher *ProcessLauncher) environ(ctx context.Context) []string {
	env := make([]string, 0, len(launcher.env)+1)

	for key, val := range launcher.env {
		env = append(env, key+"="+val)
	}

	if traceParent := telemetry.TraceParentFromContext(ctx); traceParent != "" {
		env = append(env, telemetry.TraceParentEnv+"="+traceParent)
	}

	return env
}

// LaunchTasks launches each named task in order. On a launch failure the tasks started so far are
// returned along with the error so the caller can stop them.
func LaunchTasks(ctx context.Context, l log.Logger, launcher Launcher, names []string) (*ActiveSet, error) {
	active := NewActiveSet()

	for _, name := range names {
		if _, ok := active.Get(name); ok {
			return active, errors.New(TaskAlreadyRunningError(name))
		}

		task, err := launcher.Launch(ctx, l, name)
		if err != nil {
			return active, err
		}

		if err := active.Add(task); err != nil {
			return active, err
		}
	}

	return active, nil
}

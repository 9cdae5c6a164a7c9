// Package task declares the units of work a batch is made of and selects which of them run.
package task

import (
	"context"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/gruntwork-io/batchrun/config"
	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/os/exec"
	"github.com/gruntwork-io/batchrun/pkg/log"
	"github.com/gruntwork-io/batchrun/util"
)

// Task is one named unit of work. It can run in this process or be re-invoked as a subtask.
type Task interface {
	// Name returns the unique task name.
	Name() string

	// Tags returns the tags used by the generate filter.
	Tags() []string

	// Check verifies the task can be started without running it.
	Check(ctx context.Context) error

	// Run executes the task to completion.
	Run(ctx context.Context, l log.Logger) error
}

// CommandTask runs an external command declared in a `[task.<name>]` config section.
type CommandTask struct {
	stdout     io.Writer
	stderr     io.Writer
	name       string
	command    string
	workingDir string
	// shellWord is the first word of a command handed to the shell because it is not on PATH.
	shellWord  string
	args       []string
	tags       []string
}

// NewCommandTask parses the command of the given task section. Commands that use shell operators
// such as `;`, `|` or `>` are run through the system shell, and so are commands whose first word is a bare
// name missing from PATH, which covers shell builtins like `exit 3` or `source env.sh`.
func NewCommandTask(cfg config.TaskConfig) (*CommandTask, error) {
	parser := shellwords.NewParser()

	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, errors.New(InvalidCommandError{Task: cfg.Name, Command: cfg.Command, Err: err})
	}

	if len(args) == 0 && parser.Position < 0 {
		return nil, errors.New(InvalidCommandError{Task: cfg.Name, Command: cfg.Command})
	}

	var shellWord string

	switch {
	case parser.Position >= 0:
		args = shellArgs(cfg.Command)
	case !hasPathSeparator(args[0]):
		if _, err := exec.LookPath(args[0]); err != nil {
			shellWord = args[0]
			args = shellArgs(cfg.Command)
		}
	}

	return &CommandTask{
		shellWord:  shellWord,
		name:       cfg.Name,
		command:    cfg.Command,
		args:       args,
		tags:       cfg.Tags,
		workingDir: cfg.WorkingDirectory,
	}, nil
}

func hasPathSeparator(executable string) bool {
	return strings.ContainsAny(executable, `/\`)
}

func shellArgs(command string) []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C", command}
	}

	return []string{"/bin/sh", "-c", command}
}

// WithOutput returns the task writing the command output to the given writers instead of the run logger.
func (task *CommandTask) WithOutput(stdout, stderr io.Writer) *CommandTask {
	newTask := *task
	newTask.stdout = stdout
	newTask.stderr = stderr

	return &newTask
}

func (task *CommandTask) Name() string {
	return task.name
}

func (task *CommandTask) Tags() []string {
	return task.tags
}

// Args returns the parsed command line.
func (task *CommandTask) Args() []string {
	return task.args
}

// Check verifies the working directory exists and the executable can be found. A command run through the
// shell because its first word is not on PATH passes when the shell resolves that word, as it does for builtins
// such as `exit` or `export`.
func (task *CommandTask) Check(ctx context.Context) error {
	if task.workingDir != "" && !util.IsDir(task.workingDir) {
		return errors.New(WorkingDirNotFoundError{Task: task.name, Dir: task.workingDir})
	}

	if task.shellWord != "" {
		if err := resolveShellWord(ctx, task.shellWord, task.workingDir); err != nil {
			return errors.New(ExecutableNotFoundError{Task: task.name, Executable: task.shellWord, Err: err})
		}

		return nil
	}

	executable := task.args[0]

	if !hasPathSeparator(executable) {
		if _, err := exec.LookPath(executable); err != nil {
			return errors.New(ExecutableNotFoundError{Task: task.name, Executable: executable, Err: err})
		}

		return nil
	}

	if !filepath.IsAbs(executable) && task.workingDir != "" {
		executable = filepath.Join(task.workingDir, executable)
	}

	if !util.IsFile(executable) {
		return errors.New(ExecutableNotFoundError{Task: task.name, Executable: task.args[0]})
	}

	return nil
}

// Run executes the command and waits for it. When ctx is cancelled the command is interrupted and the
// cancellation cause is returned.
func (task *CommandTask) Run(ctx context.Context, l log.Logger) error {
	cmd := exec.Command(ctx, task.args[0], task.args[1:]...)
	cmd.Configure(exec.WithLogger(l))
	cmd.Dir = task.workingDir
	cmd.Stdout = task.stdout
	cmd.Stderr = task.stderr

	if cmd.Stdout == nil {
		cmd.Stdout = &log.Writer{Logger: l, Level: log.InfoLevel}
	}

	if cmd.Stderr == nil {
		cmd.Stderr = &log.Writer{Logger: l, Level: log.WarnLevel}
	}

	l.Debugf("Running command: %s", strings.Join(task.args, " "))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.New(context.Cause(ctx))
		}

		return errors.New(CommandFailedError{Task: task.name, Command: task.command, Err: err})
	}

	return nil
}

// resolveShellWord asks the system shell whether it can run word, which it can for builtins and functions
// as well as programs.
func resolveShellWord(ctx context.Context, word, dir string) error {
	if runtime.GOOS == "windows" {
		return errors.Errorf("%s is not on PATH", word)
	}

	cmd := exec.Command(ctx, "/bin/sh", "-c", `command -v "$1"`, "sh", word)
	cmd.Dir = dir
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	return cmd.Run()
}

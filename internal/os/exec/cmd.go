// Package exec runs external commands. It wraps exec.Cmd with graceful shutdown on context cancellation.
package exec

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/os/signal"
	"github.com/gruntwork-io/batchrun/pkg/log"
)

// DefaultGracefulShutdownDelay is how long a command may keep running after it was interrupted before it is killed.
const DefaultGracefulShutdownDelay = time.Second * 30

// Cmd is a command type.
type Cmd struct {
	*exec.Cmd

	logger          log.Logger
	interruptSignal os.Signal
	filename        string
}

// Option configures a Cmd.
type Option func(*Cmd)

// WithLogger sets the logger used to report forwarded signals.
func WithLogger(l log.Logger) Option {
	return func(cmd *Cmd) {
		cmd.logger = l
	}
}

// WithGracefulShutdownDelay sets how long the command may take to exit after the interrupt signal before it is killed.
func WithGracefulShutdownDelay(delay time.Duration) Option {
	return func(cmd *Cmd) {
		cmd.WaitDelay = delay
	}
}

// WithInterruptSignal sets the signal sent to the command when the context is cancelled without a signal cause.
func WithInterruptSignal(sig os.Signal) Option {
	return func(cmd *Cmd) {
		cmd.interruptSignal = sig
	}
}

// Command returns the `Cmd` struct to execute the named program with the given arguments.
// Once ctx is done the command receives the signal the context was cancelled with, or the interrupt signal,
// instead of being killed outright.
func Command(ctx context.Context, name string, args ...string) *Cmd {
	cmd := &Cmd{
		Cmd:             exec.CommandContext(ctx, name, args...),
		logger:          log.Default(),
		interruptSignal: signal.InterruptSignal,
		filename:        filepath.Base(name),
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.WaitDelay = DefaultGracefulShutdownDelay

	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}

		sig := signal.SignalFromContext(ctx)
		if sig == nil {
			sig = cmd.interruptSignal
		}

		return cmd.SendSignal(sig)
	}

	return cmd
}

// LookPath searches for an executable named file in the directories named by the PATH environment variable.
func LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Configure sets options to the `Cmd`.
func (cmd *Cmd) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(cmd)
	}
}

// Run starts the command and waits for it to complete.
func (cmd *Cmd) Run() error {
	if err := cmd.Cmd.Run(); err != nil {
		return errors.New(err)
	}

	return nil
}

// SendSignal sends the given `sig` to the executed command.
func (cmd *Cmd) SendSignal(sig os.Signal) error {
	cmd.logger.Debugf("%s signal is forwarded to %s", cases.Title(language.English).String(sig.String()), cmd.filename)

	if err := cmd.Process.Signal(sig); err != nil {
		cmd.logger.Errorf("Failed to forward signal %s to %s: %v", sig, cmd.filename, err)
		return err
	}

	return nil
}

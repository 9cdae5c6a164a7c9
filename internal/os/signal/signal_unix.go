//go:build !windows

package signal

import (
	"os"
	"syscall"
)

// InterruptSignal is the signal forwarded to child processes when the run is interrupted.
const InterruptSignal = syscall.SIGINT

// ChildExitSignal is delivered whenever a child process changes state.
const ChildExitSignal = syscall.SIGCHLD

// InterruptSignals contains a list of signals that are treated as interrupts.
var InterruptSignals = []os.Signal{syscall.SIGTERM, syscall.SIGINT}

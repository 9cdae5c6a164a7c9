//go:build windows

package signal

import (
	"os"
)

// InterruptSignal is the signal forwarded to child processes when the run is interrupted.
// Windows cannot deliver interrupts to other processes, children are killed instead.
var InterruptSignal os.Signal = os.Kill

// InterruptSignals contains a list of signals that are treated as interrupts.
var InterruptSignals = []os.Signal{os.Interrupt}

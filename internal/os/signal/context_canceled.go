// Package signal carries OS interrupt signals through context cancellation.
package signal

import (
	"context"
	"os"
	"os/signal"
)

// ContextCanceledCause contains a signal to pass through when the context is cancelled.
type ContextCanceledCause struct {
	Signal os.Signal
}

// NewContextCanceledCause returns a new `ContextCanceledCause` instance.
func NewContextCanceledCause(sig os.Signal) *ContextCanceledCause {
	return &ContextCanceledCause{Signal: sig}
}

// Error implements the `Error` method.
func (ContextCanceledCause) Error() string {
	return context.Canceled.Error()
}

// Unwrap implements the `Unwrap` method.
func (ContextCanceledCause) Unwrap() error {
	return context.Canceled
}

// SignalFromContext returns the OS signal the context was cancelled with, if any.
func SignalFromContext(ctx context.Context) os.Signal {
	if cause, ok := context.Cause(ctx).(*ContextCanceledCause); ok {
		return cause.Signal
	}

	return nil
}

// NotifyContext returns a copy of the parent context that is cancelled with a `ContextCanceledCause`
// as soon as one of the given signals arrives. The returned stop function unregisters the handler.
func NotifyContext(parent context.Context, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, sigs...)

	go func() {
		select {
		case sig := <-sigCh:
			cancel(NewContextCanceledCause(sig))
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel(context.Canceled)
	}
}

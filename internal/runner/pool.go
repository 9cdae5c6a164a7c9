package runner

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/os/signal"
	"github.com/gruntwork-io/batchrun/pkg/log"
	"github.com/gruntwork-io/batchrun/telemetry"
)

// DefaultSignalForwardingDelay is how long the pool waits before forwarding an OS signal to running tasks.
// Tasks in the same process group usually receive the signal from the terminal themselves, the delay
// avoids interrupting them twice.
const DefaultSignalForwardingDelay = time.Second * 15

// Pool runs tasks as child processes, at most `concurrency` at a time. Tasks are launched in the given
// order as slots free up and may complete in any order.
type Pool struct {
	launcher Launcher
	waiter   Waiter
	outcomes *Outcomes

	// inFlight mirrors the active set for the interrupt forwarder, the only state shared with another goroutine.
	inFlight  *xsync.MapOf[string, *RunningTask]
	forwarded atomic.Bool

	concurrency           int
	maxActive             int
	signalForwardingDelay time.Duration
}

// PoolOption is a function that modifies a Pool.
type PoolOption func(*Pool)

// WithLauncher sets the launcher starting the task processes.
func WithLauncher(launcher Launcher) PoolOption {
	return func(pool *Pool) {
		pool.launcher = launcher
	}
}

// WithWaiter sets the waiter detecting task completion.
func WithWaiter(waiter Waiter) PoolOption {
	return func(pool *Pool) {
		pool.waiter = waiter
	}
}

// WithMaxConcurrency sets the number of tasks allowed to run at once.
func WithMaxConcurrency(concurrency int) PoolOption {
	return func(pool *Pool) {
		if concurrency <= 0 {
			concurrency = 1
		}

		pool.concurrency = concurrency
	}
}

// WithOutcomes sets where the task results are recorded.
func WithOutcomes(outcomes *Outcomes) PoolOption {
	return func(pool *Pool) {
		pool.outcomes = outcomes
	}
}

// WithSignalForwardingDelay sets how long to wait before forwarding an OS signal to running tasks.
func WithSignalForwardingDelay(delay time.Duration) PoolOption {
	return func(pool *Pool) {
		pool.signalForwardingDelay = delay
	}
}

// NewPool creates a new Pool with the given options.
func NewPool(opts ...PoolOption) *Pool {
	pool := &Pool{
		concurrency:           1,
		signalForwardingDelay: DefaultSignalForwardingDelay,
		inFlight:              xsync.NewMapOf[string, *RunningTask](),
	}

	for _, opt := range opts {
		opt(pool)
	}

	if pool.outcomes == nil {
		pool.outcomes = NewOutcomes(nil)
	}

	return pool
}

// Outcomes returns the recorded results.
func (pool *Pool) Outcomes() *Outcomes {
	return pool.outcomes
}

// MaxActive returns the largest number of tasks that were running at the same time.
func (pool *Pool) MaxActive() int {
	return pool.maxActive
}

// Run launches the named tasks and waits until all of them have finished. It returns an error naming
// the failed tasks, or an InterruptError if ctx was cancelled, joined with the failures seen before it.
func (pool *Pool) Run(ctx context.Context, l log.Logger, names []string) error {
	return telemetry.TelemeterFromContext(ctx).Collect(ctx, "batch_pool", map[string]any{
		"total_tasks": len(names),
		"concurrency": pool.concurrency,
	}, func(ctx context.Context) error {
		return pool.run(ctx, l, names)
	})
}

func (pool *Pool) run(ctx context.Context, l log.Logger, names []string) error {
	if pool.launcher == nil || pool.waiter == nil {
		return errors.Errorf("pool is missing a launcher or a waiter, cannot run")
	}

	var (
		limit   = min(pool.concurrency, len(names))
		backlog = names[limit:]
	)

	l.Debugf("Running %d tasks, %d at a time", len(names), limit)

	if ctx.Err() != nil {
		return pool.interruptError(ctx, names)
	}

	stopForwarding := pool.forwardInterrupts(ctx, l)
	defer stopForwarding()

	active, err := LaunchTasks(ctx, l, pool.launcher, names[:limit])
	for _, task := range active.Tasks() {
		pool.track(ctx, l, active, task)
	}

	if err != nil {
		pool.abort(l, active)
		return err
	}

	for active.Len() > 0 {
		task, err := pool.waiter.Wait(active)
		if err != nil {
			pool.abort(l, active)
			return err
		}

		pool.finish(ctx, l, active, task)

		if len(backlog) == 0 || ctx.Err() != nil {
			continue
		}

		name := backlog[0]
		backlog = backlog[1:]

		if _, ok := active.Get(name); ok {
			pool.abort(l, active)
			return errors.New(TaskAlreadyRunningError(name))
		}

		next, err := pool.launcher.Launch(ctx, l, name)
		if err != nil {
			pool.abort(l, active)
			return err
		}

		if err := active.Add(next); err != nil {
			next.Close() //nolint:errcheck
			pool.abort(l, active)

			return err
		}

		pool.track(ctx, l, active, next)
	}

	if ctx.Err() != nil {
		return pool.outcomes.interrupted(pool.interruptError(ctx, backlog))
	}

	return pool.outcomes.Err()
}

func (pool *Pool) interruptError(ctx context.Context, notStarted []string) error {
	return errors.New(InterruptError{
		Cause:      context.Cause(ctx),
		Signal:     signal.SignalFromContext(ctx),
		NotStarted: notStarted,
	})
}

// track registers a launched task for interrupt forwarding.
func (pool *Pool) track(ctx context.Context, l log.Logger, active *ActiveSet, task *RunningTask) {
	pool.inFlight.Store(task.Name, task)
	pool.maxActive = max(pool.maxActive, active.Len())

	telemetry.TelemeterFromContext(ctx).Count(ctx, "task_launched", 1, map[string]any{"task": task.Name})

	// The forwarder may have walked the in-flight tasks before this one was stored.
	if pool.forwarded.Load() {
		pool.sendSignal(l, task, signal.InterruptSignal)
	}
}

// finish removes a terminated task from the active set, records its result and closes its log.
func (pool *Pool) finish(ctx context.Context, l log.Logger, active *ActiveSet, task *RunningTask) {
	active.Remove(task.Name)
	pool.inFlight.Delete(task.Name)

	res := task.Result()

	if err := task.Close(); err != nil {
		l.Warnf("Failed to close task %s: %v", task.Name, err)
	}

	if res.Failed() && (ctx.Err() != nil || pool.forwarded.Load()) {
		pool.outcomes.RecordInterrupted(l, res)
		return
	}

	pool.outcomes.Record(l, res)
}

// abort interrupts every running task and waits for them to exit. Used when the run cannot continue.
func (pool *Pool) abort(l log.Logger, active *ActiveSet) {
	pool.forwarded.Store(true)

	for _, task := range active.Tasks() {
		pool.sendSignal(l, task, signal.InterruptSignal)
	}

	for active.Len() > 0 {
		task, err := pool.waiter.Wait(active)
		if err != nil {
			l.Errorf("Failed to wait for running tasks: %v", err)

			for _, task := range active.Tasks() {
				task.Close() //nolint:errcheck
			}

			return
		}

		pool.finish(context.Background(), l, active, task)
	}
}

// forwardInterrupts sends the interrupt signal once to every in-flight task when ctx is cancelled.
// When ctx carries an OS signal it is forwarded after the signal forwarding delay.
func (pool *Pool) forwardInterrupts(ctx context.Context, l log.Logger) func() {
	stop := make(chan struct{})

	go func() {
		select {
		case <-stop:
			return
		case <-ctx.Done():
		}

		sig := signal.SignalFromContext(ctx)

		if sig == nil {
			sig = signal.InterruptSignal
		} else if pool.signalForwardingDelay > 0 {
			l.Debugf("%s signal will be forwarded to running tasks with delay %s", cases.Title(language.English).String(sig.String()), pool.signalForwardingDelay)

			select {
			case <-stop:
				return
			case <-time.After(pool.signalForwardingDelay):
			}
		}

		pool.forwarded.Store(true)

		pool.inFlight.Range(func(_ string, task *RunningTask) bool {
			pool.sendSignal(l, task, sig)
			return true
		})
	}()

	return func() {
		close(stop)
	}
}

func (pool *Pool) sendSignal(l log.Logger, task *RunningTask, sig os.Signal) {
	l.Infof("%s signal is forwarded to task %s", cases.Title(language.English).String(sig.String()), task.Name)

	if err := task.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		l.Warnf("Failed to forward signal %s to task %s: %v", sig, task.Name, err)
	}
}

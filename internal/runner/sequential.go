package runner

import (
	"context"
	"time"

	"github.com/gruntwork-io/batchrun/config"
	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/os/signal"
	"github.com/gruntwork-io/batchrun/internal/task"
	"github.com/gruntwork-io/batchrun/pkg/log"
	"github.com/gruntwork-io/batchrun/telemetry"
)

// Snapshotter saves the configuration a task ran with.
type Snapshotter interface {
	Snapshot(taskName string) error
}

// ConfigSnapshotter writes the effective configuration to `<LogsDir>/configs/config.<task>`.
type ConfigSnapshotter struct {
	Config  *config.Config
	LogsDir string
}

// Snapshot implements Snapshotter.
func (snapshotter ConfigSnapshotter) Snapshot(taskName string) error {
	return snapshotter.Config.Snapshot(snapshotter.LogsDir, taskName)
}

// RunSequential runs the tasks one after another in this process, in the given order. A failing task is
// recorded and the run continues. An interrupt stops the run immediately and is returned as an InterruptError.
func RunSequential(ctx context.Context, l log.Logger, tasks []task.Task, snapshotter Snapshotter, outcomes *Outcomes) error {
	return telemetry.TelemeterFromContext(ctx).Collect(ctx, "batch_sequential", map[string]any{
		"total_tasks": len(tasks),
	}, func(ctx context.Context) error {
		return runSequential(ctx, l, tasks, snapshotter, outcomes)
	})
}

func runSequential(ctx context.Context, l log.Logger, tasks []task.Task, snapshotter Snapshotter, outcomes *Outcomes) error {
	for i, tsk := range tasks {
		if ctx.Err() != nil {
			return outcomes.interrupted(sequentialInterruptError(ctx, tasks[i:]))
		}

		taskLogger := l.WithField(log.FieldKeyPrefix, tsk.Name())

		res := runInProcess(ctx, taskLogger, tsk)

		if res.Err != nil && (ctx.Err() != nil || errors.IsContextCanceled(res.Err)) {
			outcomes.RecordInterrupted(taskLogger, res)
			return outcomes.interrupted(sequentialInterruptError(ctx, tasks[i+1:]))
		}

		if !res.Failed() {
			hours, minutes, seconds := splitDuration(res.Duration())
			taskLogger.Infof("Execution time: %d:%02d:%05.2f", hours, minutes, seconds)
		}

		outcomes.Record(taskLogger, res)

		if snapshotter != nil {
			if err := snapshotter.Snapshot(tsk.Name()); err != nil {
				taskLogger.Warnf("Failed to save the configuration of task %s: %v", tsk.Name(), err)
			}
		}
	}

	if failures := outcomes.Failures(); len(tasks) > 1 && len(failures) > 0 {
		if last, ok := outcomes.LastFailure(); ok && last.Trace != "" {
			if len(failures) == 1 {
				l.Errorf("The stacktrace was:\n%s", last.Trace)
			} else {
				l.Errorf("The last stacktrace was:\n%s", last.Trace)
			}
		}
	}

	return outcomes.Err()
}

// runInProcess runs a single task, turning a returned error or a panic into a failed Result.
func runInProcess(ctx context.Context, l log.Logger, tsk task.Task) (res Result) {
	res = Result{
		Name:    tsk.Name(),
		Started: time.Now(),
	}

	defer func() {
		res.Ended = time.Now()
	}()

	defer errors.Recover(func(cause error) {
		res.Err = cause
		res.Status = ExitStatus{Code: failedExitCode}
		res.Trace = traceOf(cause)
	})

	if err := tsk.Run(ctx, l); err != nil {
		code, codeErr := errors.ExitCode(err)
		if codeErr != nil || code == 0 {
			code = failedExitCode
		}

		res.Err = err
		res.Status = ExitStatus{Code: code}
		res.Trace = traceOf(err)
	}

	return res
}

func traceOf(err error) string {
	if stack := errors.ErrorStack(err); stack != "" {
		return stack
	}

	return err.Error()
}

func sequentialInterruptError(ctx context.Context, remaining []task.Task) error {
	notStarted := make([]string, 0, len(remaining))

	for _, tsk := range remaining {
		notStarted = append(notStarted, tsk.Name())
	}

	return errors.New(InterruptError{
		Cause:      context.Cause(ctx),
		Signal:     signal.SignalFromContext(ctx),
		NotStarted: notStarted,
	})
}

func splitDuration(duration time.Duration) (int, int, float64) {
	hours := int(duration / time.Hour)
	duration -= time.Duration(hours) * time.Hour

	minutes := int(duration / time.Minute)
	duration -= time.Duration(minutes) * time.Minute

	return hours, minutes, duration.Seconds()
}

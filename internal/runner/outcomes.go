package runner

import (
	"slices"

	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/report"
	"github.com/gruntwork-io/batchrun/pkg/log"
)

const failedExitCode = 1

// Outcomes accumulates the results of a batch. Failures are kept in completion order and every
// result is also recorded in the run report.
type Outcomes struct {
	report     *report.Report
	lastFailed *Result
	failures   []string
}

// NewOutcomes returns an empty Outcomes writing to the given report. A nil report is replaced by a new one.
func NewOutcomes(rep *report.Report) *Outcomes {
	if rep == nil {
		rep = report.NewReport()
	}

	return &Outcomes{
		report: rep,
	}
}

// Report returns the run report.
func (outcomes *Outcomes) Report() *report.Report {
	return outcomes.report
}

// Record classifies a finished task and logs the outcome.
func (outcomes *Outcomes) Record(l log.Logger, res Result) {
	if !res.Failed() {
		l.Infof("Task %s has finished successfully.", res.Name)
		outcomes.addRun(l, res, report.WithResult(report.ResultSucceeded))

		return
	}

	switch {
	case res.LogPath != "":
		l.Errorf("ERROR in task %s.  See log file %s for details", res.Name, res.LogPath)
	case res.Trace != "":
		l.Errorf("ERROR: task %s failed during run\n%s", res.Name, res.Trace)
	default:
		l.Errorf("ERROR: task %s failed during run: %v", res.Name, res.Err)
	}

	reason := report.ReasonExitCode

	switch {
	case res.Err != nil:
		reason = report.ReasonRunError
	case res.Status.Signal != "":
		reason = report.ReasonSignal
	}

	outcomes.addRun(l, res, report.WithResult(report.ResultFailed), report.WithReason(reason))

	if slices.Contains(outcomes.failures, res.Name) {
		l.Warnf("Task %s has already been recorded as failed", res.Name)
		return
	}

	outcomes.failures = append(outcomes.failures, res.Name)
	outcomes.lastFailed = &res
}

// RecordInterrupted records a task that was stopped by an interrupt. It does not count as a failure.
func (outcomes *Outcomes) RecordInterrupted(l log.Logger, res Result) {
	l.Warnf("Task %s was interrupted", res.Name)
	outcomes.addRun(l, res, report.WithResult(report.ResultInterrupted), report.WithReason(report.ReasonInterrupted))
}

// RecordExcluded records a task that failed its check and was not run.
func (outcomes *Outcomes) RecordExcluded(l log.Logger, name string) {
	outcomes.addRun(l, Result{Name: name}, report.WithResult(report.ResultExcluded), report.WithReason(report.ReasonCheckFailed))
}

func (outcomes *Outcomes) addRun(l log.Logger, res Result, opts ...report.EndOption) {
	run := report.NewRun(res.Name)

	if !res.Started.IsZero() {
		run.Started = res.Started
	}

	if err := outcomes.report.AddRun(run); err != nil {
		l.Debugf("Failed to add %s to the run report: %v", res.Name, err)
		return
	}

	if !res.Ended.IsZero() {
		opts = append(opts, report.WithEnded(res.Ended))
	}

	if res.LogPath != "" {
		opts = append(opts, report.WithLogPath(res.LogPath))
	}

	if err := outcomes.report.EndRun(res.Name, opts...); err != nil {
		l.Debugf("Failed to end %s in the run report: %v", res.Name, err)
	}
}

// Failures returns the failed task names in completion order.
func (outcomes *Outcomes) Failures() []string {
	return slices.Clone(outcomes.failures)
}

// LastFailure returns the most recent failure, if any.
func (outcomes *Outcomes) LastFailure() (Result, bool) {
	if outcomes.lastFailed == nil {
		return Result{}, false
	}

	return *outcomes.lastFailed, true
}

// Err returns nil if no task failed, otherwise an error naming the failed tasks that makes the app exit with code 1.
func (outcomes *Outcomes) Err() error {
	if len(outcomes.failures) == 0 {
		return nil
	}

	return errors.ErrorWithExitCode{
		Err:      &TaskFailuresError{Tasks: outcomes.Failures()},
		ExitCode: failedExitCode,
	}
}

// interrupted returns the interrupt error joined with the failures recorded before the interrupt.
func (outcomes *Outcomes) interrupted(interrupt error) error {
	failures := outcomes.Err()
	if failures == nil {
		return interrupt
	}

	errs := &errors.MultiError{}

	return errs.Append(interrupt, failures).ErrorOrNil()
}

// Package report collects the outcome of every task in a batch and renders it as a summary or a CSV or JSON file.
package report

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Report captures data for a report/summary.
type Report struct {
	format               Format
	runs                 []*Run
	mu                   sync.RWMutex
	shouldColor          bool
	showTaskLevelSummary bool
}

// Run captures data for a single task.
type Run struct {
	Started time.Time
	Ended   time.Time
	Reason  *Reason
	Name    string
	LogPath string
	Result  Result

	mu sync.RWMutex
}

// Result captures the result of a run.
type Result string

// Reason captures the reason for a run result.
type Reason string

const (
	ResultSucceeded   Result = "succeeded"
	ResultFailed      Result = "failed"
	ResultInterrupted Result = "interrupted"
	ResultExcluded    Result = "excluded"
)

const (
	ReasonExitCode    Reason = "exit code"
	ReasonSignal      Reason = "signal"
	ReasonRunError    Reason = "run error"
	ReasonCheckFailed Reason = "check failed"
	ReasonInterrupted Reason = "interrupted"
)

var (
	// ErrRunAlreadyExists is returned when a run already exists in the report.
	ErrRunAlreadyExists = errors.New("run already exists")

	// ErrRunNotFound is returned when a run is not found in the report.
	ErrRunNotFound = errors.New("run not found")
)

// Option configures a Report.
type Option func(*Report)

// WithFormat sets the format WriteToFile writes in. Defaults to CSV.
func WithFormat(format Format) Option {
	return func(r *Report) {
		r.format = format
	}
}

// WithShouldColor sets whether the summary is colorized.
func WithShouldColor(shouldColor bool) Option {
	return func(r *Report) {
		r.shouldColor = shouldColor
	}
}

// WithShowTaskLevelSummary lists every task with its duration under its result category.
func WithShowTaskLevelSummary(show bool) Option {
	return func(r *Report) {
		r.showTaskLevelSummary = show
	}
}

// NewReport creates a new report.
func NewReport(opts ...Option) *Report {
	r := &Report{
		format: FormatCSV,
		runs:   make([]*Run, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NewRun creates a new run started now.
func NewRun(name string) *Run {
	return &Run{
		Name:    name,
		Started: time.Now(),
	}
}

// AddRun adds a run to the report.
// If the run already exists, it returns the ErrRunAlreadyExists error.
func (r *Report) AddRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existingRun := range r.runs {
		if existingRun.Name == run.Name {
			return fmt.Errorf("%w: %s", ErrRunAlreadyExists, run.Name)
		}
	}

	r.runs = append(r.runs, run)

	return nil
}

// GetRun returns a run from the report.
func (r *Report) GetRun(name string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, run := range r.runs {
		if run.Name == name {
			return run, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, name)
}

// Runs returns a copy of the runs in the order they were added.
func (r *Report) Runs() []*Run {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.runs)
}

// EndRun ends a run.
// If the run does not exist, it returns the ErrRunNotFound error.
// By default, the run is assumed to have succeeded. To change this, pass WithResult to the function.
func (r *Report) EndRun(name string, endOptions ...EndOption) error {
	run, err := r.GetRun(name)
	if err != nil {
		return err
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	run.Ended = time.Now()
	run.Result = ResultSucceeded

	for _, endOption := range endOptions {
		endOption(run)
	}

	return nil
}

// EndOption are optional configurations for ending a run.
type EndOption func(*Run)

// WithResult sets the result of a run.
func WithResult(result Result) EndOption {
	return func(run *Run) {
		run.Result = result
	}
}

// WithReason sets the reason of a run.
func WithReason(reason Reason) EndOption {
	return func(run *Run) {
		run.Reason = &reason
	}
}

// WithEnded overrides the end time of a run.
func WithEnded(ended time.Time) EndOption {
	return func(run *Run) {
		run.Ended = ended
	}
}

// WithLogPath records the log file the task wrote to.
func WithLogPath(path string) EndOption {
	return func(run *Run) {
		run.LogPath = path
	}
}

// Duration returns how long the run took.
func (run *Run) Duration() time.Duration {
	run.mu.RLock()
	defer run.mu.RUnlock()

	if run.Ended.IsZero() {
		return 0
	}

	return run.Ended.Sub(run.Started)
}

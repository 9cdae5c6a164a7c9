// Package options provides the set of options that configure a batchrun invocation.
package options

import (
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/report"
	"github.com/gruntwork-io/batchrun/pkg/log"
	"github.com/gruntwork-io/batchrun/telemetry"
)

const (
	// DefaultParallelTaskCount runs tasks one after another in this process.
	DefaultParallelTaskCount = 1

	defaultLogLevel = log.InfoLevel
)

// RunOptions represents options that configure a batch run.
type RunOptions struct {
	// Writer is where the run summary is printed.
	Writer io.Writer

	// ErrWriter is where log entries are written.
	ErrWriter io.Writer

	Logger log.Logger

	Telemetry *telemetry.Options

	// Executable is the program re-invoked for every subtask, normally the running binary.
	Executable string

	// WorkingDir is the directory relative paths of the configuration are resolved against.
	WorkingDir string

	// RunID identifies the batch. Subtasks inherit it through the environment.
	RunID string

	// ReportFile is the path of the report written at the end of the run. Empty disables it.
	ReportFile string

	// ReportFormat is the format of ReportFile.
	ReportFormat report.Format

	// ReportSchemaFile is the path the JSON schema of the json report is written to. Empty disables it.
	ReportSchemaFile string

	// DefaultConfigFile replaces the embedded default configuration when set.
	DefaultConfigFile string

	// ConfigFiles are the user config files in load order.
	ConfigFiles []string

	// Generate overrides the `[output] generate` list when not empty.
	Generate []string

	// ParallelTaskCount overrides `[execute] parallelTaskCount` when greater than zero.
	ParallelTaskCount int

	LogLevel log.Level

	// Subtask is set when this invocation was launched by a parent batch to run a single task.
	Subtask bool

	NoColor bool
}

// NewRunOptions creates a new RunOptions object with reasonable defaults for real usage.
func NewRunOptions() *RunOptions {
	return NewRunOptionsWithWriters(os.Stdout, os.Stderr)
}

// NewRunOptionsWithWriters creates a new RunOptions object writing to the given outputs.
func NewRunOptionsWithWriters(stdout, stderr io.Writer) *RunOptions {
	formatter := log.NewPrettyFormatter().DisableColorsIfNotTerminal(stderr)

	return &RunOptions{
		Writer:       stdout,
		ErrWriter:    stderr,
		LogLevel:     defaultLogLevel,
		Logger:       log.New(log.WithOutput(stderr), log.WithLevel(defaultLogLevel), log.WithFormatter(formatter)),
		RunID:        uuid.NewString(),
		ReportFormat: report.FormatCSV,
		Telemetry:    &telemetry.Options{},
	}
}

// Validate checks the options for values that can never work.
func (opts *RunOptions) Validate() error {
	if opts.ParallelTaskCount < 0 {
		return errors.New(InvalidParallelTaskCountError(opts.ParallelTaskCount))
	}

	if len(opts.ConfigFiles) == 0 {
		return errors.New(ErrNoConfigFiles)
	}

	if opts.Subtask && len(opts.Generate) != 1 {
		return errors.New(SubtaskGenerateError(opts.Generate))
	}

	return nil
}

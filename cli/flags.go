package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/gruntwork-io/batchrun/internal/runner"
	"github.com/gruntwork-io/batchrun/options"
	"github.com/gruntwork-io/batchrun/telemetry"
)

const (
	FlagNameSubtask           = "subtask"
	FlagNameGenerate          = "generate"
	FlagNameParallelTaskCount = "parallel-task-count"
	FlagNameLogLevel          = "log-level"
	FlagNameNoColor           = "no-color"
	FlagNameReportFile        = "report-file"
	FlagNameReportFormat      = "report-format"
	FlagNameReportSchemaFile  = "report-schema-file"
	FlagNameDefaultConfig     = "default-config"
	FlagNameWorkingDir        = "working-dir"
	FlagNameRunID             = "run-id"

	FlagNameTelemetryTraceExporter            = "telemetry-trace-exporter"
	FlagNameTelemetryMetricExporter           = "telemetry-metric-exporter"
	FlagNameTelemetryExporterInsecureEndpoint = "telemetry-exporter-insecure-endpoint"
	FlagNameTraceParent                       = "traceparent"

	EnvVarPrefix = "BATCHRUN_"
)

func envVars(name string) []string {
	return []string{EnvVarPrefix + name}
}

// NewFlags returns the global flags. Defaults are taken from opts.
func NewFlags(opts *options.RunOptions) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  FlagNameSubtask,
			Usage: "Run a single task selected with --generate in this process. Set by the parent batch on every task it launches.",
		},
		&cli.StringFlag{
			Name:    FlagNameGenerate,
			Aliases: []string{"g"},
			Usage:   "Comma-separated list overriding [output] generate, e.g. 'all_ocean,no_sst'.",
		},
		&cli.IntFlag{
			Name:    FlagNameParallelTaskCount,
			EnvVars: envVars("PARALLEL_TASK_COUNT"),
			Usage:   "Number of tasks run at the same time. Overrides [execute] parallelTaskCount.",
		},
		&cli.StringFlag{
			Name:    FlagNameLogLevel,
			EnvVars: envVars("LOG_LEVEL"),
			Value:   opts.LogLevel.String(),
			Usage:   "Sets the logging level: error, warn, info, debug or trace.",
		},
		&cli.BoolFlag{
			Name:    FlagNameNoColor,
			EnvVars: envVars("NO_COLOR"),
			Usage:   "Disables colors in the log and the run summary.",
		},
		&cli.StringFlag{
			Name:    FlagNameReportFile,
			EnvVars: envVars("REPORT_FILE"),
			Usage:   "Writes a report of every task to the given path.",
		},
		&cli.StringFlag{
			Name:    FlagNameReportFormat,
			EnvVars: envVars("REPORT_FORMAT"),
			Value:   string(opts.ReportFormat),
			Usage:   "Format of the report written with --report-file: csv or json.",
		},
		&cli.StringFlag{
			Name:    FlagNameReportSchemaFile,
			EnvVars: envVars("REPORT_SCHEMA_FILE"),
			Usage:   "Writes the JSON schema of the json report to the given path.",
		},
		&cli.StringFlag{
			Name:    FlagNameDefaultConfig,
			EnvVars: envVars("DEFAULT_CONFIG"),
			Usage:   "Config file loaded before the CONFIG arguments instead of the built-in defaults.",
		},
		&cli.StringFlag{
			Name:    FlagNameWorkingDir,
			EnvVars: envVars("WORKING_DIR"),
			Usage:   "Directory relative paths of the configuration are resolved against. Default is the current directory.",
		},
		&cli.StringFlag{
			Name:    FlagNameRunID,
			EnvVars: []string{runner.RunIDEnv},
			Value:   opts.RunID,
			Hidden:  true,
		},
		&cli.StringFlag{
			Name:    FlagNameTelemetryTraceExporter,
			EnvVars: envVars("TELEMETRY_TRACE_EXPORTER"),
			Usage:   "Trace exporter: none, console, otlpHttp or otlpGrpc.",
		},
		&cli.StringFlag{
			Name:    FlagNameTelemetryMetricExporter,
			EnvVars: envVars("TELEMETRY_METRIC_EXPORTER"),
			Usage:   "Metric exporter: none, console, otlpHttp or otlpGrpc.",
		},
		&cli.BoolFlag{
			Name:    FlagNameTelemetryExporterInsecureEndpoint,
			EnvVars: envVars("TELEMETRY_EXPORTER_INSECURE_ENDPOINT"),
			Usage:   "Use plain HTTP or an insecure gRPC connection for the OTLP exporters.",
		},
		&cli.StringFlag{
			Name:    FlagNameTraceParent,
			EnvVars: []string{telemetry.TraceParentEnv},
			Hidden:  true,
		},
	}
}

// Package cli builds the batchrun command line application.
package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gruntwork-io/batchrun/config"
	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/os/stdout"
	"github.com/gruntwork-io/batchrun/internal/report"
	"github.com/gruntwork-io/batchrun/internal/runner"
	"github.com/gruntwork-io/batchrun/options"
	"github.com/gruntwork-io/batchrun/pkg/log"
	"github.com/gruntwork-io/batchrun/telemetry"
)

const AppName = "batchrun"

// Version is set at build time with `-ldflags "-X github.com/gruntwork-io/batchrun/cli.Version=..."`.
var Version = "dev"

// NewApp creates the batchrun CLI App.
func NewApp(opts *options.RunOptions) *cli.App {
	app := cli.NewApp()
	app.Name = AppName
	app.Usage = "Runs the tasks declared in the given config files, sequentially or as parallel subtask processes."
	app.UsageText = "batchrun [global options] CONFIG..."
	app.ArgsUsage = "CONFIG..."
	app.Version = Version
	app.Writer = opts.Writer
	app.ErrWriter = opts.ErrWriter
	app.Flags = NewFlags(opts)
	app.HideHelpCommand = true
	app.Action = errors.WithPanicHandling(func(ctx *cli.Context) error {
		if err := initialSetup(ctx, opts); err != nil {
			return err
		}

		return Run(ctx.Context, opts)
	})
	// Errors are returned to main, which decides the exit code.
	app.ExitErrHandler = func(*cli.Context, error) {}

	return app
}

func initialSetup(ctx *cli.Context, opts *options.RunOptions) error {
	opts.ConfigFiles = ctx.Args().Slice()
	opts.Subtask = ctx.Bool(FlagNameSubtask)
	opts.ParallelTaskCount = ctx.Int(FlagNameParallelTaskCount)
	opts.NoColor = ctx.Bool(FlagNameNoColor)
	opts.ReportFile = ctx.String(FlagNameReportFile)
	opts.ReportSchemaFile = ctx.String(FlagNameReportSchemaFile)
	opts.DefaultConfigFile = ctx.String(FlagNameDefaultConfig)
	opts.RunID = ctx.String(FlagNameRunID)

	if generate := ctx.String(FlagNameGenerate); generate != "" {
		opts.Generate = config.ParseList(generate)
	}

	opts.Telemetry = &telemetry.Options{
		TraceExporter:            ctx.String(FlagNameTelemetryTraceExporter),
		MetricExporter:           ctx.String(FlagNameTelemetryMetricExporter),
		ExporterInsecureEndpoint: ctx.Bool(FlagNameTelemetryExporterInsecureEndpoint),
		TraceParent:              ctx.String(FlagNameTraceParent),
	}

	level, err := log.ParseLevel(ctx.String(FlagNameLogLevel))
	if err != nil {
		return err
	}

	opts.LogLevel = level

	if opts.ReportFormat, err = report.ParseFormat(ctx.String(FlagNameReportFormat)); err != nil {
		return err
	}

	formatter := log.NewPrettyFormatter()
	if opts.NoColor {
		formatter.DisableColors = true
	} else {
		formatter.DisableColorsIfNotTerminal(opts.ErrWriter)
	}

	opts.Logger.SetOptions(log.WithLevel(level), log.WithFormatter(formatter))

	if opts.WorkingDir = ctx.String(FlagNameWorkingDir); opts.WorkingDir == "" {
		dir, err := os.Getwd()
		if err != nil {
			return errors.New(err)
		}

		opts.WorkingDir = dir
	}

	if opts.Executable == "" {
		executable, err := os.Executable()
		if err != nil {
			return errors.New(err)
		}

		opts.Executable = executable
	}

	return opts.Validate()
}

// Run loads the configuration and runs the batch described by opts. The run summary is printed and the
// report and its schema written unless this is a subtask.
func Run(ctx context.Context, opts *options.RunOptions) error {
	l := opts.Logger
	if opts.Subtask {
		l = l.WithField(log.FieldKeyRunID, opts.RunID)
	}

	l.Debugf("%s %s, run id %s", AppName, Version, opts.RunID)

	telemeter, err := telemetry.NewTelemeter(ctx, AppName, Version, opts.Writer, opts.Telemetry)
	if err != nil {
		return err
	}

	defer func() {
		if shutdownErr := telemeter.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			l.Warnf("Failed to flush telemetry: %v", shutdownErr)
		}
	}()

	ctx = telemetry.ContextWithTelemeter(ctx, telemeter)
	ctx = log.ContextWithLogger(ctx, l)

	loadOpts := []config.Option{config.WithWorkingDir(opts.WorkingDir), config.WithLogger(l)}
	if opts.DefaultConfigFile != "" {
		loadOpts = append(loadOpts, config.WithDefaultFile(opts.DefaultConfigFile))
	}

	cfg, err := config.Load(opts.ConfigFiles, loadOpts...)
	if err != nil {
		return err
	}

	rep := report.NewReport(
		report.WithFormat(opts.ReportFormat),
		report.WithShouldColor(!opts.NoColor && stdout.IsTerminal(opts.Writer)),
		report.WithShowTaskLevelSummary(l.Level() >= log.DebugLevel),
	)

	runErr := runner.Run(ctx, l, opts, cfg, runner.NewOutcomes(rep))

	if opts.Subtask {
		return runErr
	}

	errs := &errors.MultiError{}

	if err := rep.WriteSummary(opts.Writer); err != nil {
		errs = errs.Append(err)
	}

	if opts.ReportFile != "" {
		if err := rep.WriteToFile(opts.ReportFile); err != nil {
			errs = errs.Append(err)
		} else {
			l.Debugf("Report written to %s", opts.ReportFile)
		}
	}

	if opts.ReportSchemaFile != "" {
		if err := report.WriteSchemaToFile(opts.ReportSchemaFile); err != nil {
			errs = errs.Append(err)
		}
	}

	if errs.Len() == 0 {
		return runErr
	}

	return errs.Append(runErr).ErrorOrNil()
}

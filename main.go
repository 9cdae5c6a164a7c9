package main

import (
	"context"
	"os"

	"github.com/gruntwork-io/batchrun/cli"
	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/os/signal"
	"github.com/gruntwork-io/batchrun/options"
	"github.com/gruntwork-io/batchrun/pkg/log"
)

// The main entrypoint for batchrun
func main() {
	opts := options.NewRunOptions()

	defer errors.Recover(checkForErrorsAndExit(opts.Logger))

	ctx, cancel := signal.NotifyContext(context.Background(), signal.InterruptSignals...)
	ctx = log.ContextWithLogger(ctx, opts.Logger)

	app := cli.NewApp(opts)
	err := app.RunContext(ctx, os.Args)

	cancel()
	checkForErrorsAndExit(opts.Logger)(err)
}

// If there is an error, display it in the console and exit with a non-zero exit code. Otherwise, exit 0.
func checkForErrorsAndExit(logger log.Logger) func(error) {
	return func(err error) {
		if err == nil {
			os.Exit(0)
		}

		logger.Error(err.Error())

		if errStack := errors.ErrorStack(err); errStack != "" {
			logger.Trace(errStack)
		}

		// exit with the underlying error code
		exitCode, exitCodeErr := errors.ExitCode(err)
		if exitCodeErr != nil || exitCode == 0 {
			exitCode = 1
		}

		os.Exit(exitCode)
	}
}

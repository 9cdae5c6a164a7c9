// Package runner schedules the tasks of a batch, either one after another in this process or as
// parallel subtask processes with a bounded number running at once.
package runner

import (
	"context"
	"strings"

	"github.com/gruntwork-io/batchrun/config"
	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/task"
	"github.com/gruntwork-io/batchrun/options"
	"github.com/gruntwork-io/batchrun/pkg/log"
	"github.com/gruntwork-io/batchrun/util"
)

const lockFilename = ".batchrun.lock"

// Run selects and checks the tasks of the configuration, then runs them sequentially or in a pool of
// subtask processes depending on the parallel task count. Every result is recorded in outcomes.
func Run(ctx context.Context, l log.Logger, opts *options.RunOptions, cfg *config.Config, outcomes *Outcomes) error {
	if len(opts.Generate) > 0 {
		cfg.SetGenerate(strings.Join(opts.Generate, ","))
	}

	generate, err := cfg.Generate()
	if err != nil {
		return err
	}

	registry, err := task.NewRegistryFromConfig(cfg)
	if err != nil {
		return err
	}

	selected, err := registry.Select(generate)
	if err != nil {
		return err
	}

	ready, excluded := task.CheckAll(ctx, l, selected)
	for _, exclusion := range excluded {
		outcomes.RecordExcluded(l, exclusion.Task.Name())
	}

	if len(ready) == 0 {
		l.Warnf("None of the %d selected tasks passed the check, nothing to run", len(selected))
		return nil
	}

	logsDir, err := cfg.LogsDirectory()
	if err != nil {
		return err
	}

	if err := util.EnsureDirectory(util.JoinPath(logsDir, config.ConfigsSubdirectory)); err != nil {
		return err
	}

	// A subtask runs inside the logs directory of its parent, which holds the lock.
	if !opts.Subtask {
		lock := util.NewLockfile(util.JoinPath(logsDir, lockFilename))
		if err := lock.TryAcquire(); err != nil {
			return err
		}

		defer func() {
			if err := lock.Release(); err != nil {
				l.Warnf("Failed to release %s: %v", lock.Path(), err)
			}
		}()
	}

	count := opts.ParallelTaskCount
	if count <= 0 {
		if count, err = cfg.ParallelTaskCount(); err != nil {
			return err
		}
	}

	l.Debugf("Running %d tasks with parallel task count %d, logs in %s", len(ready), count, logsDir)

	if count <= 1 || len(ready) == 1 || opts.Subtask {
		return RunSequential(ctx, l, ready, ConfigSnapshotter{Config: cfg, LogsDir: logsDir}, outcomes)
	}

	return runParallel(ctx, l, opts, cfg, logsDir, count, ready, outcomes)
}

func runParallel(ctx context.Context, l log.Logger, opts *options.RunOptions, cfg *config.Config, logsDir string, count int, tasks []task.Task, outcomes *Outcomes) error {
	if opts.Executable == "" {
		return errors.Errorf("the executable to launch subtasks with is not set")
	}

	commandPrefix, err := cfg.CommandPrefix()
	if err != nil {
		return err
	}

	launcher := NewProcessLauncher(opts.Executable, logsDir,
		WithCommandPrefix(commandPrefix),
		WithFlags(subtaskFlags(cfg)...),
		WithConfigFiles(cfg.Files),
		WithEnv(map[string]string{RunIDEnv: opts.RunID}),
	)

	waiter := NewProcessWaiter()
	defer waiter.Close()

	names := make([]string, 0, len(tasks))
	for _, tsk := range tasks {
		names = append(names, tsk.Name())
	}

	pool := NewPool(
		WithLauncher(launcher),
		WithWaiter(waiter),
		WithMaxConcurrency(count),
		WithOutcomes(outcomes),
	)

	return pool.Run(ctx, l, names)
}

// subtaskFlags returns the flags a subtask needs to load the same configuration as this run.
func subtaskFlags(cfg *config.Config) []string {
	flags := []string{WorkingDirFlag, cfg.WorkingDir}

	if cfg.DefaultFile != "" {
		flags = append(flags, DefaultConfigFlag, cfg.DefaultFile)
	}

	return flags
}

//go:build unix

package runner_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/batchrun/config"
	"github.com/gruntwork-io/batchrun/internal/report"
	"github.com/gruntwork-io/batchrun/internal/runner"
	"github.com/gruntwork-io/batchrun/options"
	"github.com/gruntwork-io/batchrun/util"
)

func writeBatchConfig(t *testing.T, dir string, parallel int, tasks string) *config.Config {
	t.Helper()

	content := fmt.Sprintf("[output]\nbaseDirectory = %s\n\n[execute]\nparallelTaskCount = %d\n\n%s", dir, parallel, tasks)

	path := filepath.Join(dir, "run.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load([]string{path}, config.WithWorkingDir(dir), config.WithLogger(newTestLogger(io.Discard)))
	require.NoError(t, err)

	return cfg
}

func testRunOptions(t *testing.T) *options.RunOptions {
	t.Helper()

	opts := options.NewRunOptionsWithWriters(io.Discard, io.Discard)
	opts.Executable = subtaskScript(t)

	return opts
}

func TestRunParallel(t *testing.T) {
	t.Parallel()

	var (
		dir      = t.TempDir()
		opts     = testRunOptions(t)
		outcomes = runner.NewOutcomes(nil)
		cfg      = writeBatchConfig(t, dir, 2, "[task.sst]\ncommand = true\n\n[task.fail_ohc]\ncommand = true\n\n[task.slow_extent]\ncommand = true\n")
	)

	err := runner.Run(t.Context(), newTestLogger(io.Discard), opts, cfg, outcomes)
	require.Error(t, err)
	assert.Equal(t, "There were errors in task fail_ohc", err.Error())

	logsDir := filepath.Join(dir, "logs")

	for _, name := range []string{"sst", "fail_ohc", "slow_extent"} {
		content, err := os.ReadFile(filepath.Join(logsDir, name+".log"))
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(string(content)), "\n")
		require.Len(t, lines, 2, name)
		assert.Equal(t, "Command: "+opts.Executable+" --subtask --generate "+name+" --working-dir "+dir+" "+cfg.Files[0], lines[0])
		assert.Equal(t, "subtask "+name+" run "+opts.RunID, lines[1])
	}

	assert.Len(t, outcomes.Report().Runs(), 3)

	lock := util.NewLockfile(filepath.Join(logsDir, ".batchrun.lock"))
	require.NoError(t, lock.TryAcquire())
	require.NoError(t, lock.Release())
}

func TestRunSequentialWritesSnapshots(t *testing.T) {
	t.Parallel()

	var (
		dir      = t.TempDir()
		outcomes = runner.NewOutcomes(nil)
		cfg      = writeBatchConfig(t, dir, 1, "[task.sst]\ncommand = true\n\n[task.ohc]\ncommand = sh -c \"exit 4\"\n")
	)

	err := runner.Run(t.Context(), newTestLogger(io.Discard), testRunOptions(t), cfg, outcomes)
	require.Error(t, err)
	assert.Equal(t, "There were errors in task ohc", err.Error())

	for _, name := range []string{"sst", "ohc"} {
		content, err := os.ReadFile(config.SnapshotPath(filepath.Join(dir, "logs"), name))
		require.NoError(t, err)
		assert.Contains(t, string(content), "parallelTaskCount")
	}

	last, ok := outcomes.LastFailure()
	require.True(t, ok)
	assert.Equal(t, 4, last.Status.Code)
}

func TestRunExcludesFailedChecks(t *testing.T) {
	t.Parallel()

	var (
		dir      = t.TempDir()
		outcomes = runner.NewOutcomes(nil)
		cfg      = writeBatchConfig(t, dir, 1, "[task.sst]\ncommand = true\n\n[task.ohc]\ncommand = true\nworkingDirectory = missing\n")
	)

	err := runner.Run(t.Context(), newTestLogger(io.Discard), testRunOptions(t), cfg, outcomes)
	require.NoError(t, err)

	run, err := outcomes.Report().GetRun("ohc")
	require.NoError(t, err)
	assert.Equal(t, report.ResultExcluded, run.Result)

	run, err = outcomes.Report().GetRun("sst")
	require.NoError(t, err)
	assert.Equal(t, report.ResultSucceeded, run.Result)
}

func TestRunGenerateOverride(t *testing.T) {
	t.Parallel()

	var (
		dir      = t.TempDir()
		opts     = testRunOptions(t)
		outcomes = runner.NewOutcomes(nil)
		cfg      = writeBatchConfig(t, dir, 4, "[task.sst]\ncommand = true\n\n[task.ohc]\ncommand = false\n")
	)

	opts.Generate = []string{"sst"}

	err := runner.Run(t.Context(), newTestLogger(io.Discard), opts, cfg, outcomes)
	require.NoError(t, err)

	runs := outcomes.Report().Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "sst", runs[0].Name)

	generate, err := cfg.Generate()
	require.NoError(t, err)
	assert.Equal(t, []string{"sst"}, generate)
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	t.Parallel()

	var (
		dir = t.TempDir()
		cfg = writeBatchConfig(t, dir, 1, "[task.sst]\ncommand = true\n")
	)

	require.NoError(t, util.EnsureDirectory(filepath.Join(dir, "logs")))

	lock := util.NewLockfile(filepath.Join(dir, "logs", ".batchrun.lock"))
	require.NoError(t, lock.TryAcquire())

	defer lock.Release() //nolint:errcheck

	err := runner.Run(t.Context(), newTestLogger(io.Discard), testRunOptions(t), cfg, runner.NewOutcomes(nil))

	var locked util.ErrLocked
	require.ErrorAs(t, err, &locked)
}

//go:build unix

package task_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/gruntwork-io/batchrun/config"
	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTaskRunLogsOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cmdTask, err := task.NewCommandTask(config.TaskConfig{Name: "ocean", Command: "echo computing; echo oops >&2"})
	require.NoError(t, err)

	require.NoError(t, cmdTask.Run(t.Context(), newTestLogger(&buf)))
	assert.Contains(t, buf.String(), "INFO   computing\n")
	assert.Contains(t, buf.String(), "WARN   oops\n")
}

func TestCommandTaskRunWithOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr, logs bytes.Buffer

	cmdTask, err := task.NewCommandTask(config.TaskConfig{Name: "ocean", Command: "echo out; echo err >&2"})
	require.NoError(t, err)

	require.NoError(t, cmdTask.WithOutput(&stdout, &stderr).Run(t.Context(), newTestLogger(&logs)))
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
	assert.Empty(t, logs.String())
}

func TestCommandTaskRunFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cmdTask, err := task.NewCommandTask(config.TaskConfig{Name: "ocean", Command: "exit 3"})
	require.NoError(t, err)

	err = cmdTask.Run(t.Context(), newTestLogger(&buf))

	var failed task.CommandFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, "ocean", failed.Task)

	code, err := errors.ExitCode(err)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestCommandTaskRunCancelled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cmdTask, err := task.NewCommandTask(config.TaskConfig{Name: "ocean", Command: "sleep 30"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()

	err = cmdTask.Run(ctx, newTestLogger(&buf))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

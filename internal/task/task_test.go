package task_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gruntwork-io/batchrun/config"
	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandTask(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		command  string
		expected []string
	}{
		{`./ocean.sh --region "north atlantic"`, []string{"./ocean.sh", "--region", "north atlantic"}},
		{`sh -c 'echo 1'`, []string{"sh", "-c", "echo 1"}},
		{`./ocean.sh; echo done`, []string{"/bin/sh", "-c", "./ocean.sh; echo done"}},
		{`./ocean.sh > out.txt`, []string{"/bin/sh", "-c", "./ocean.sh > out.txt"}},
		{`exit 3`, []string{"/bin/sh", "-c", "exit 3"}},
		{`source ./env.sh`, []string{"/bin/sh", "-c", "source ./env.sh"}},
	}

	for _, tc := range testCases {
		t.Run(tc.command, func(t *testing.T) {
			t.Parallel()

			if filepath.Separator != '/' && !strings.HasPrefix(tc.expected[0], "./") {
				t.Skip("shell lookup differs on windows")
			}

			cmdTask, err := task.NewCommandTask(config.TaskConfig{Name: "ocean", Command: tc.command})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cmdTask.Args())
		})
	}
}

func TestNewCommandTaskEmpty(t *testing.T) {
	t.Parallel()

	_, err := task.NewCommandTask(config.TaskConfig{Name: "ocean", Command: "  "})

	var invalid task.InvalidCommandError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "ocean", invalid.Task)
}

func TestCommandTaskCheck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"), 0755))

	testCases := []struct {
		expectedErr any
		name        string
		cfg         config.TaskConfig
		viaShell    bool
	}{
		{
			name: "relative executable in working dir",
			cfg:  config.TaskConfig{Name: "ok", Command: "./run.sh", WorkingDirectory: dir},
		},
		{
			name:        "missing relative executable",
			cfg:         config.TaskConfig{Name: "missing", Command: "./absent.sh", WorkingDirectory: dir},
			expectedErr: &task.ExecutableNotFoundError{},
		},
		{
			name:        "missing working dir",
			cfg:         config.TaskConfig{Name: "nodir", Command: "./run.sh", WorkingDirectory: filepath.Join(dir, "absent")},
			expectedErr: &task.WorkingDirNotFoundError{},
		},
		{
			name:        "executable not on PATH",
			cfg:         config.TaskConfig{Name: "nopath", Command: "batchrun-definitely-not-installed --help"},
			expectedErr: &task.ExecutableNotFoundError{},
		},
		{
			name:     "shell builtin",
			cfg:      config.TaskConfig{Name: "builtin", Command: "exit 3", WorkingDirectory: dir},
			viaShell: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if tc.viaShell && filepath.Separator != '/' {
				t.Skip("shell builtins are not resolved on windows")
			}

			cmdTask, err := task.NewCommandTask(tc.cfg)
			require.NoError(t, err)

			err = cmdTask.Check(t.Context())
			if tc.expectedErr == nil {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.As(err, tc.expectedErr))
		})
	}
}

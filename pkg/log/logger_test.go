package log_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/gruntwork-io/batchrun/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, level log.Level) log.Logger {
	formatter := log.NewPrettyFormatter()
	formatter.DisableColors = true
	formatter.DisableTimestamp = true

	return log.New(log.WithOutput(buf), log.WithLevel(level), log.WithFormatter(formatter))
}

func TestPrettyFormatter(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		level    log.Level
		log      func(l log.Logger)
		expected string
	}{
		{
			name:  "info with prefix",
			level: log.InfoLevel,
			log: func(l log.Logger) {
				l.WithField(log.FieldKeyPrefix, "sst").Infof("Running %s", "sst")
			},
			expected: "INFO   [sst] Running sst\n",
		},
		{
			name:  "extra fields are appended sorted",
			level: log.InfoLevel,
			log: func(l log.Logger) {
				l.WithFields(log.Fields{"b": 2, "a": 1}).Warn("careful")
			},
			expected: "WARN   careful a=1 b=2\n",
		},
		{
			name:  "debug filtered out at info",
			level: log.InfoLevel,
			log: func(l log.Logger) {
				l.Debug("hidden")
			},
			expected: "",
		},
		{
			name:  "trace shown at trace",
			level: log.TraceLevel,
			log: func(l log.Logger) {
				l.Trace("visible")
			},
			expected: "TRACE  visible\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			tc.log(newTestLogger(&buf, tc.level))

			assert.Equal(t, tc.expected, buf.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := log.ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, level)

	_, err = log.ParseLevel("verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supported levels: error, warn, info, debug, trace")
}

func TestLoggerFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := newTestLogger(&buf, log.InfoLevel)
	ctx := log.ContextWithLogger(context.Background(), logger)

	log.LoggerFromContext(ctx).Info("from context")

	assert.Equal(t, "INFO   from context\n", buf.String())
	assert.NotNil(t, log.LoggerFromContext(context.Background()))
}

func TestWriterStripsColors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	writer := &log.Writer{Logger: newTestLogger(&buf, log.InfoLevel), Level: log.InfoLevel}

	_, err := writer.Write([]byte("\033[31mred\033[0m"))
	require.NoError(t, err)

	assert.Equal(t, "INFO   red\n", buf.String())
}

func TestWriterSplitsLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	writer := &log.Writer{Logger: newTestLogger(&buf, log.InfoLevel), Level: log.WarnLevel}

	_, err := writer.Write([]byte("first\r\n\nsecond\n"))
	require.NoError(t, err)

	assert.Equal(t, "WARN   first\nWARN   second\n", buf.String())
}

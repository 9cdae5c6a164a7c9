package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestNewRun(t *testing.T) {
	t.Parallel()

	run := NewRun("ocean")
	assert.Equal(t, "ocean", run.Name)
	assert.False(t, run.Started.IsZero())
	assert.True(t, run.Ended.IsZero())
	assert.Empty(t, run.Result)
	assert.Nil(t, run.Reason)
	assert.Zero(t, run.Duration())
}

func TestAddRun(t *testing.T) {
	t.Parallel()

	report := NewReport()
	require.NoError(t, report.AddRun(NewRun("ocean")))

	err := report.AddRun(NewRun("ocean"))
	require.ErrorIs(t, err, ErrRunAlreadyExists)
	assert.Len(t, report.Runs(), 1)
}

func TestEndRun(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		options        []EndOption
		expectedResult Result
		expectedReason *Reason
	}{
		{
			name:           "default succeeded",
			expectedResult: ResultSucceeded,
		},
		{
			name:           "failed with exit code",
			options:        []EndOption{WithResult(ResultFailed), WithReason(ReasonExitCode)},
			expectedResult: ResultFailed,
			expectedReason: reasonPtr(ReasonExitCode),
		},
		{
			name:           "excluded by check",
			options:        []EndOption{WithResult(ResultExcluded), WithReason(ReasonCheckFailed)},
			expectedResult: ResultExcluded,
			expectedReason: reasonPtr(ReasonCheckFailed),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			report := NewReport()
			require.NoError(t, report.AddRun(NewRun("ocean")))
			require.NoError(t, report.EndRun("ocean", append(tc.options, WithLogPath("/logs/ocean.log"))...))

			run, err := report.GetRun("ocean")
			require.NoError(t, err)
			assert.Equal(t, tc.expectedResult, run.Result)
			assert.Equal(t, tc.expectedReason, run.Reason)
			assert.Equal(t, "/logs/ocean.log", run.LogPath)
			assert.False(t, run.Ended.IsZero())
		})
	}
}

func TestEndRunNotFound(t *testing.T) {
	t.Parallel()

	err := NewReport().EndRun("missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	report := newTestReport(t, start)

	summary := report.Summarize()
	assert.Equal(t, 4, summary.TotalTasks())
	assert.Equal(t, 1, summary.TasksSucceeded)
	assert.Equal(t, 1, summary.TasksFailed)
	assert.Equal(t, 1, summary.Interrupted)
	assert.Equal(t, 1, summary.Excluded)
	assert.Equal(t, time.Minute, summary.TotalDuration())
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	var buf bytes.Buffer

	require.NoError(t, newTestReport(t, start, WithShowTaskLevelSummary(true)).WriteSummary(&buf))

	expected := "\n" +
		"❯❯ Run Summary  4 tasks  1m\n" +
		"   ────────────────────────────\n" +
		"   Succeeded     1\n" +
		"      ocean  1m\n" +
		"   Failed        1\n" +
		"      seaice  30s\n" +
		"   Interrupted   1\n" +
		"      mld  10s\n" +
		"   Excluded      1\n" +
		"      sst  0ms\n" +
		"\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteSummaryEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, NewReport().WriteSummary(&buf))
	assert.Empty(t, buf.String())
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "reports", "run.csv")

	require.NoError(t, newTestReport(t, start).WriteToFile(path))

	file, err := os.Open(path)
	require.NoError(t, err)

	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"ocean", "2024-01-01T10:00:00Z", "2024-01-01T10:01:00Z", "succeeded", "", "/logs/ocean.log"}, records[1])
	assert.Equal(t, []string{"seaice", "2024-01-01T10:00:00Z", "2024-01-01T10:00:30Z", "failed", "exit code", "/logs/seaice.log"}, records[2])
	assert.Equal(t, "interrupted", records[3][3])
	assert.Equal(t, "check failed", records[4][4])
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "reports", "run.json")

	require.NoError(t, newTestReport(t, start, WithFormat(FormatJSON)).WriteToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var runs []JSONRun
	require.NoError(t, json.Unmarshal(data, &runs))
	require.Len(t, runs, 4)

	assert.Equal(t, "ocean", runs[0].Name)
	assert.Equal(t, "succeeded", runs[0].Result)
	assert.Nil(t, runs[0].Reason)
	assert.Equal(t, "/logs/ocean.log", runs[0].LogPath)
	require.NotNil(t, runs[0].Ended)
	assert.True(t, start.Add(time.Minute).Equal(*runs[0].Ended))

	require.NotNil(t, runs[1].Reason)
	assert.Equal(t, "exit code", *runs[1].Reason)
	assert.Equal(t, "interrupted", runs[2].Result)
	assert.Equal(t, "excluded", runs[3].Result)
	assert.Empty(t, runs[3].LogPath)
}

func TestJSONReportMatchesSchema(t *testing.T) {
	t.Parallel()

	var report, schema bytes.Buffer

	require.NoError(t, newTestReport(t, time.Now()).WriteJSON(&report))
	require.NoError(t, WriteSchema(&schema))

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema.Bytes()), gojsonschema.NewBytesLoader(report.Bytes()))
	require.NoError(t, err)
	assert.True(t, result.Valid(), "%v", result.Errors())

	invalid := []byte(`[{"Name": "ocean", "Started": "2024-01-01T10:00:00Z", "Result": "skipped"}]`)

	result, err = gojsonschema.Validate(gojsonschema.NewBytesLoader(schema.Bytes()), gojsonschema.NewBytesLoader(invalid))
	require.NoError(t, err)
	assert.False(t, result.Valid())
}

func TestWriteSchemaToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "schemas", "report.schema.json")
	require.NoError(t, WriteSchemaToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, "array", schema["type"])
	assert.Contains(t, schema, "items")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		expected Format
		wantErr  bool
	}{
		{name: "", expected: FormatCSV},
		{name: "csv", expected: FormatCSV},
		{name: "json", expected: FormatJSON},
		{name: "xml", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			format, err := ParseFormat(tc.name)
			if tc.wantErr {
				require.ErrorIs(t, err, UnsupportedFormatError(tc.name))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, format)
		})
	}
}

func newTestReport(t *testing.T, start time.Time, opts ...Option) *Report {
	t.Helper()

	report := NewReport(opts...)

	runs := []struct {
		name     string
		duration time.Duration
		options  []EndOption
	}{
		{"ocean", time.Minute, []EndOption{WithLogPath("/logs/ocean.log")}},
		{"seaice", 30 * time.Second, []EndOption{WithResult(ResultFailed), WithReason(ReasonExitCode), WithLogPath("/logs/seaice.log")}},
		{"mld", 90 * time.Second, nil},
		{"sst", 0, []EndOption{WithResult(ResultExcluded), WithReason(ReasonCheckFailed)}},
	}

	for _, run := range runs {
		require.NoError(t, report.AddRun(&Run{Name: run.name, Started: start}))
		require.NoError(t, report.EndRun(run.name, append(run.options, WithEnded(start.Add(run.duration)))...))
	}

	// mld ran longest but was interrupted
	require.NoError(t, report.EndRun("mld", WithResult(ResultInterrupted), WithReason(ReasonInterrupted), WithEnded(start.Add(10*time.Second))))

	return report
}

func reasonPtr(reason Reason) *Reason {
	return &reason
}

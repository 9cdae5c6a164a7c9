package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/util"
)

// Format is the file format of a written report.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// UnsupportedFormatError is returned for a report format other than csv or json.
type UnsupportedFormatError string

func (err UnsupportedFormatError) Error() string {
	return "unsupported report format " + string(err) + ", expected csv or json"
}

// ParseFormat returns the report format with the given name. An empty name selects CSV.
func ParseFormat(name string) (Format, error) {
	switch format := Format(name); format {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON:
		return format, nil
	default:
		return "", errors.New(UnsupportedFormatError(name))
	}
}

// csvHeader lists the columns of a CSV report.
var csvHeader = []string{"Name", "Started", "Ended", "Result", "Reason", "LogPath"}

// JSONRun is a run in a JSON report.
type JSONRun struct {
	Started time.Time  `json:"Started" jsonschema:"required"`
	Ended   *time.Time `json:"Ended,omitempty"`
	Reason  *string    `json:"Reason,omitempty" jsonschema:"enum=exit code,enum=signal,enum=run error,enum=check failed,enum=interrupted"`
	Name    string     `json:"Name" jsonschema:"required"`
	Result  string     `json:"Result" jsonschema:"required,enum=succeeded,enum=failed,enum=interrupted,enum=excluded"`
	LogPath string     `json:"LogPath,omitempty"`
}

// WriteCSV writes the report to a writer in CSV format.
func (r *Report) WriteCSV(w io.Writer) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(csvHeader); err != nil {
		return errors.New(err)
	}

	for _, run := range r.Runs() {
		if err := csvWriter.Write(run.csvRecord()); err != nil {
			return errors.New(err)
		}
	}

	csvWriter.Flush()

	return errors.New(csvWriter.Error())
}

// WriteJSON writes the report to a writer as a JSON array of runs.
func (r *Report) WriteJSON(w io.Writer) error {
	runs := r.Runs()
	jsonRuns := make([]JSONRun, 0, len(runs))

	for _, run := range runs {
		jsonRuns = append(jsonRuns, run.jsonRun())
	}

	return writeIndentedJSON(w, jsonRuns)
}

// WriteToFile writes the report in its format to the given path, creating the parent directory.
func (r *Report) WriteToFile(path string) error {
	switch r.format {
	case FormatJSON:
		return writeFile(path, r.WriteJSON)
	case FormatCSV, "":
		return writeFile(path, r.WriteCSV)
	default:
		return errors.New(UnsupportedFormatError(r.format))
	}
}

// WriteSchema writes the JSON schema of the JSON report.
func WriteSchema(w io.Writer) error {
	return writeIndentedJSON(w, reportSchema())
}

// WriteSchemaToFile writes the JSON schema of the JSON report to the given path.
func WriteSchemaToFile(path string) error {
	return writeFile(path, WriteSchema)
}

func reportSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	runSchema := reflector.Reflect(&JSONRun{})
	runSchema.Title = "batchrun task run"

	return &jsonschema.Schema{
		Type:        "array",
		Title:       "batchrun run report",
		Description: "Outcome of every task of a batch run",
		Items:       runSchema,
	}
}

func writeIndentedJSON(w io.Writer, val any) error {
	data, err := json.MarshalIndent(val, "", "  ")
	if err != nil {
		return errors.New(err)
	}

	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return errors.New(err)
	}

	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := util.EnsureDirectory(filepath.Dir(path)); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.New(err)
	}

	if err := write(file); err != nil {
		file.Close() //nolint:errcheck
		return err
	}

	return errors.New(file.Close())
}

func (run *Run) jsonRun() JSONRun {
	run.mu.RLock()
	defer run.mu.RUnlock()

	jsonRun := JSONRun{
		Name:    run.Name,
		Started: run.Started,
		Result:  string(run.Result),
		LogPath: run.LogPath,
	}

	if !run.Ended.IsZero() {
		ended := run.Ended
		jsonRun.Ended = &ended
	}

	if run.Reason != nil {
		reason := string(*run.Reason)
		jsonRun.Reason = &reason
	}

	return jsonRun
}

func (run *Run) csvRecord() []string {
	run.mu.RLock()
	defer run.mu.RUnlock()

	var reason, ended string

	if run.Reason != nil {
		reason = string(*run.Reason)
	}

	if !run.Ended.IsZero() {
		ended = run.Ended.Format(time.RFC3339)
	}

	return []string{
		run.Name,
		run.Started.Format(time.RFC3339),
		ended,
		string(run.Result),
		reason,
		run.LogPath,
	}
}

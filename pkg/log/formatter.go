package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
)

const defaultTimestampFormat = "15:04:05.000"

var (
	// prefixStyles contains ANSI 256 color codes that are assigned sequentially to each unique prefix in a rotating order.
	prefixStyles = []string{
		"66", "67", "95", "96", "102", "103", "108", "109", "139", "138", "144", "145",
	}

	levelStyles = map[Level]string{
		ErrorLevel: "red+h",
		WarnLevel:  "yellow+h",
		InfoLevel:  "green",
		DebugLevel: "blue+h",
		TraceLevel: "white",
	}

	timestampStyle = "black+h"
)

// PrettyFormatter renders entries as `time LEVEL [prefix] message key=value`.
type PrettyFormatter struct {
	// DisableColors forces disabling colors. For a TTY colors are enabled by default.
	DisableColors bool

	// DisableTimestamp allows disabling automatic timestamps in output.
	DisableTimestamp bool

	// TimestampFormat to use for display when a full timestamp is printed.
	TimestampFormat string

	prefixColors   *xsync.MapOf[string, func(string) string]
	nextStyleIndex *xsync.Counter
}

// NewPrettyFormatter returns a new PrettyFormatter instance with default values.
func NewPrettyFormatter() *PrettyFormatter {
	return &PrettyFormatter{
		TimestampFormat: defaultTimestampFormat,
		prefixColors:    xsync.NewMapOf[string, func(string) string](),
		nextStyleIndex:  xsync.NewCounter(),
	}
}

// DisableColorsIfNotTerminal turns colors off when the given output is not a terminal.
func (formatter *PrettyFormatter) DisableColorsIfNotTerminal(output io.Writer) *PrettyFormatter {
	file, ok := output.(*os.File)
	if !ok || !(isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())) {
		formatter.DisableColors = true
	}

	return formatter
}

// Format implements logrus.Formatter
func (formatter *PrettyFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	buf := entry.Buffer
	if buf == nil {
		buf = new(bytes.Buffer)
	}

	var (
		level     = strings.ToUpper(fmt.Sprintf("%-6s", FromLogrusLevel(entry.Level)))
		fields    = Fields(entry.Data)
		prefix    string
		timestamp string
	)

	if val, ok := fields[FieldKeyPrefix].(string); ok && val != "" {
		prefix = fmt.Sprintf("[%s] ", val)
	}

	if !formatter.DisableTimestamp && formatter.TimestampFormat != "" {
		timestamp = entry.Time.Format(formatter.TimestampFormat) + " "
	}

	if !formatter.DisableColors {
		level = ansi.Color(level, levelStyles[FromLogrusLevel(entry.Level)])
		timestamp = ansi.Color(timestamp, timestampStyle)

		if prefix != "" {
			prefix = formatter.prefixColorFunc(prefix)(prefix)
		}
	}

	fmt.Fprintf(buf, "%s%s %s%s", timestamp, level, prefix, entry.Message)

	for _, key := range fields.Keys(FieldKeyPrefix) {
		fmt.Fprintf(buf, " %s=%v", key, fields[key])
	}

	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func (formatter *PrettyFormatter) prefixColorFunc(prefix string) func(string) string {
	if colorFunc, ok := formatter.prefixColors.Load(prefix); ok {
		return colorFunc
	}

	index := int(formatter.nextStyleIndex.Value()) % len(prefixStyles)
	formatter.nextStyleIndex.Inc()

	colorFunc, _ := formatter.prefixColors.LoadOrStore(prefix, ansi.ColorFunc(prefixStyles[index]))

	return colorFunc
}

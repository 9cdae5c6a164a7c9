// Package log provides a leveled logger with structured logging support.
package log

// std backs Default.
var std = New(WithFormatter(NewPrettyFormatter()))

// Default returns the process-wide logger, used where no logger was passed down through options or the context.
func Default() Logger {
	return std
}

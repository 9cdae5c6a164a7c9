package report

import (
	"fmt"
	"time"

	"github.com/mgutz/ansi"
)

// Colorizer is a colorizer for the run summary output.
type Colorizer struct {
	headingTitleColorizer func(string) string
	headingTaskColorizer  func(string) string
	successColorizer      func(string) string
	failureColorizer      func(string) string
	interruptColorizer    func(string) string
	excludeColorizer      func(string) string
	millisecondColorizer  func(string) string
	secondColorizer       func(string) string
	minuteColorizer       func(string) string
	defaultColorizer      func(string) string
	paddingColorizer      func(string) string
}

// NewColorizer creates a new Colorizer.
func NewColorizer(shouldColor bool) *Colorizer {
	if !shouldColor {
		noColor := func(s string) string { return s }

		return &Colorizer{
			headingTitleColorizer: noColor,
			headingTaskColorizer:  noColor,
			successColorizer:      noColor,
			failureColorizer:      noColor,
			interruptColorizer:    noColor,
			excludeColorizer:      noColor,
			millisecondColorizer:  noColor,
			secondColorizer:       noColor,
			minuteColorizer:       noColor,
			defaultColorizer:      noColor,
			paddingColorizer:      noColor,
		}
	}

	return &Colorizer{
		headingTitleColorizer: ansi.ColorFunc("yellow+bh"),
		headingTaskColorizer:  ansi.ColorFunc("white+bh"),
		successColorizer:      ansi.ColorFunc("green+bh"),
		failureColorizer:      ansi.ColorFunc("red+bh"),
		interruptColorizer:    ansi.ColorFunc("yellow+bh"),
		excludeColorizer:      ansi.ColorFunc("blue+bh"),
		millisecondColorizer:  ansi.ColorFunc("cyan+bh"),
		secondColorizer:       ansi.ColorFunc("green+bh"),
		minuteColorizer:       ansi.ColorFunc("yellow+bh"),
		defaultColorizer:      ansi.ColorFunc("white+bh"),
		paddingColorizer:      ansi.ColorFunc("gray"),
	}
}

// colorDuration returns the duration as a string, colored based on the duration.
func (c *Colorizer) colorDuration(duration time.Duration) string {
	if duration < 0 {
		return c.defaultColorizer("N/A")
	}

	if duration < time.Second {
		return c.millisecondColorizer(fmt.Sprintf("%dms", duration.Milliseconds()))
	}

	if duration < time.Minute {
		return c.secondColorizer(fmt.Sprintf("%ds", int(duration.Seconds())))
	}

	return c.minuteColorizer(fmt.Sprintf("%dm", int(duration.Minutes())))
}

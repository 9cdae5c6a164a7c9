package log

import "strings"

// Writer redirects Write requests to configured logger and level, one entry per line.
type Writer struct {
	Logger Logger
	Level  Level
}

func (w *Writer) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\r\n"), "\n") {
		if line = strings.TrimRight(RemoveAllASCISeq(line), "\r"); line != "" {
			w.Logger.Log(w.Level, line)
		}
	}

	return len(p), nil
}

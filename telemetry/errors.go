package telemetry

import "fmt"

// UnknownExporterError is returned for an unsupported exporter name.
type UnknownExporterError struct {
	Kind     string
	Exporter string
}

func (err UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown %s exporter %q, supported: %s, %s, %s, %s", err.Kind, err.Exporter, ExporterNone, ExporterConsole, ExporterOTLPHTTP, ExporterOTLPGrpc)
}

// InvalidTraceParentError is returned when the inherited `traceparent` cannot be parsed.
type InvalidTraceParentError string

func (err InvalidTraceParentError) Error() string {
	return "invalid " + TraceParentEnv + " value " + string(err)
}

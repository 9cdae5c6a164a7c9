package telemetry

const (
	// TraceParentEnv is the W3C trace context variable passed to child processes.
	TraceParentEnv = "TRACEPARENT"

	ExporterNone     = "none"
	ExporterConsole  = "console"
	ExporterOTLPHTTP = "otlpHttp"
	ExporterOTLPGrpc = "otlpGrpc"
)

// Options configures the exporters.
type Options struct {
	TraceExporter string
	// TraceParent continues the trace of a parent process, in W3C `traceparent` format.
	TraceParent    string
	MetricExporter string

	ExporterInsecureEndpoint bool
}

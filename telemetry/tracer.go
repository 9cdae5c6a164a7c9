package telemetry

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gruntwork-io/batchrun/internal/errors"
)

// Tracer opens spans around function execution.
type Tracer struct {
	trace.Tracer
	provider    *sdktrace.TracerProvider
	parentSpan  trace.SpanContext
	propagation propagation.TraceContext
}

// NewTracer creates and configures the traces collection. It returns nil if no exporter is configured.
func NewTracer(ctx context.Context, appName, appVersion string, writer io.Writer, opts *Options) (*Tracer, error) {
	spanExporter, err := NewTraceExporter(ctx, writer, opts)
	if err != nil {
		return nil, err
	}

	if spanExporter == nil {
		return nil, nil
	}

	res, err := newResource(appName, appVersion)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)

	tracer := &Tracer{
		Tracer:   provider.Tracer(appName),
		provider: provider,
	}

	if opts.TraceParent != "" {
		carrier := propagation.MapCarrier{"traceparent": opts.TraceParent}

		tracer.parentSpan = trace.SpanContextFromContext(tracer.propagation.Extract(context.Background(), carrier))
		if !tracer.parentSpan.IsValid() {
			return nil, errors.New(InvalidTraceParentError(opts.TraceParent))
		}
	}

	return tracer, nil
}

// NewTraceExporter creates a new exporter based on the telemetry options.
func NewTraceExporter(ctx context.Context, writer io.Writer, opts *Options) (sdktrace.SpanExporter, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch opts.TraceExporter {
	case "", ExporterNone:
		return nil, nil
	case ExporterConsole:
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(writer))
	case ExporterOTLPHTTP:
		var config []otlptracehttp.Option
		if opts.ExporterInsecureEndpoint {
			config = append(config, otlptracehttp.WithInsecure())
		}

		exporter, err = otlptracehttp.New(ctx, config...)
	case ExporterOTLPGrpc:
		var config []otlptracegrpc.Option
		if opts.ExporterInsecureEndpoint {
			config = append(config, otlptracegrpc.WithInsecure())
		}

		exporter, err = otlptracegrpc.New(ctx, config...)
	default:
		return nil, errors.New(UnknownExporterError{Kind: "trace", Exporter: opts.TraceExporter})
	}

	if err != nil {
		return nil, errors.New(err)
	}

	return exporter, nil
}

// Trace collects traces for method execution.
func (tracer *Tracer) Trace(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if tracer == nil || tracer.provider == nil {
		return fn(ctx)
	}

	if tracer.parentSpan.IsValid() && !trace.SpanContextFromContext(ctx).IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, tracer.parentSpan)
	}

	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(mapToAttributes(attrs)...))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// TraceParentFromContext returns the `traceparent` value of the span in ctx, or an empty string without a valid span.
func TraceParentFromContext(ctx context.Context) string {
	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)

	return carrier.Get("traceparent")
}

func newResource(appName, appVersion string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(appName),
			semconv.ServiceVersion(appVersion),
		),
	)
	if err != nil {
		return nil, errors.New(err)
	}

	return res, nil
}

// Package telemetry collects traces and metrics from function execution.
package telemetry

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/gruntwork-io/batchrun/internal/errors"
)

// Telemeter combines trace and metric collection.
type Telemeter struct {
	*Tracer
	*Meter
}

// NewTelemeter initializes the telemetry collector.
func NewTelemeter(ctx context.Context, appName, appVersion string, writer io.Writer, opts *Options) (*Telemeter, error) {
	tracer, err := NewTracer(ctx, appName, appVersion, writer, opts)
	if err != nil {
		return nil, err
	}

	meter, err := NewMeter(ctx, appName, appVersion, writer, opts)
	if err != nil {
		return nil, err
	}

	return &Telemeter{
		Tracer: tracer,
		Meter:  meter,
	}, nil
}

// Shutdown flushes and stops the trace and metric providers.
func (tlm *Telemeter) Shutdown(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	if tlm.Tracer != nil && tlm.Tracer.provider != nil {
		provider := tlm.Tracer.provider
		tlm.Tracer.provider = nil

		group.Go(func() error {
			return errors.New(provider.Shutdown(ctx))
		})
	}

	if tlm.Meter != nil && tlm.Meter.provider != nil {
		provider := tlm.Meter.provider
		tlm.Meter.provider = nil

		group.Go(func() error {
			return errors.New(provider.Shutdown(ctx))
		})
	}

	return group.Wait()
}

// Collect collects telemetry from function execution metrics and traces.
func (tlm *Telemeter) Collect(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	return tlm.Trace(ctx, name, attrs, func(ctx context.Context) error {
		return tlm.Time(ctx, name, attrs, fn)
	})
}

package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// SpanRef is the W3C form of a span, kept with a stored event so a later
// publisher can continue the same trace.
type SpanRef struct {
	Parent string
	State  string
}

// CaptureSpan returns the reference for the span in ctx, or a zero SpanRef
// when ctx has no valid span context.
func CaptureSpan(ctx context.Context) SpanRef {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return SpanRef{}
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return SpanRef{Parent: carrier["traceparent"], State: carrier["tracestate"]}
}

func (r SpanRef) IsZero() bool { return r.Parent == "" }

// Resume attaches the referenced span to ctx as a remote parent.
func (r SpanRef) Resume(ctx context.Context) context.Context {
	if r.IsZero() {
		return ctx
	}
	carrier := propagation.MapCarrier{"traceparent": r.Parent}
	if r.State != "" {
		carrier["tracestate"] = r.State
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

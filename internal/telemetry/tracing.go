package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/benreeve-ow/isaac-word-agent-sub001"

// Span attribute keys shared by the orchestrator spans.
const (
	AttrSessionID = attribute.Key("wordagent.session_id")
	AttrIteration = attribute.Key("wordagent.iteration")
	AttrCallID    = attribute.Key("wordagent.call_id")
	AttrTool      = attribute.Key("wordagent.tool")
	AttrState     = attribute.Key("wordagent.state")
)

// Tracer returns the tracer from the global provider. Without an installed
// SDK provider the spans are no-ops.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartSpan starts an internal span named name.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

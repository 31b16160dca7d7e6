package otelx

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceCarrier is implemented by messages that carry trace context across an async boundary.
type TraceCarrier interface {
	Propagate(ctx context.Context)
	Extract() context.Context
}

// LinkFrom returns a span link to the producer span stored in c, if any.
func LinkFrom(c TraceCarrier) trace.Link {
	if c == nil {
		return trace.Link{}
	}
	return trace.LinkFromContext(c.Extract())
}

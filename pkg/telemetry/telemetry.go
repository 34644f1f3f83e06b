// Package telemetry records client metrics and spans with OpenTelemetry.
// Instruments come from the global providers, so nothing is exported
// unless the application installs a MeterProvider or TracerProvider.
package telemetry

import (
	"context"
	"sync"

	// Packages
	otel "go.opentelemetry.io/otel"
	attribute "go.opentelemetry.io/otel/attribute"
	codes "go.opentelemetry.io/otel/codes"
	metric "go.opentelemetry.io/otel/metric"
	trace "go.opentelemetry.io/otel/trace"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const scope = "github.com/mutablelogic/go-agentchat"

// Counter names
const (
	FramesReceived        = "agentchat.frames.received"
	FramesInvalid         = "agentchat.frames.invalid"
	QueriesSent           = "agentchat.queries.sent"
	QueriesRejected       = "agentchat.queries.rejected"
	ConnectionTransitions = "agentchat.connection.transitions"
)

var (
	counters sync.Map // name -> metric.Int64Counter
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Inc adds one to the named counter. Tags are key/value pairs.
func Inc(ctx context.Context, name string, tags ...string) {
	counter, ok := counters.Load(name)
	if !ok {
		c, err := otel.Meter(scope).Int64Counter(name)
		if err != nil {
			return
		}
		counter, _ = counters.LoadOrStore(name, c)
	}
	counter.(metric.Int64Counter).Add(ctx, 1, metric.WithAttributes(tagsToAttrs(tags)...))
}

// StartSpan starts a span and returns the context carrying it, and a
// function which ends the span, recording err when it is non-nil.
func StartSpan(ctx context.Context, name string, tags ...string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(scope).Start(ctx, name, trace.WithAttributes(tagsToAttrs(tags)...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// tagsToAttrs converts k1, v1, k2, v2... into attributes. An odd trailing
// key is paired with an empty value.
func tagsToAttrs(tags []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, (len(tags)+1)/2)
	for i := 0; i < len(tags); i += 2 {
		v := ""
		if i+1 < len(tags) {
			v = tags[i+1]
		}
		attrs = append(attrs, attribute.String(tags[i], v))
	}
	return attrs
}

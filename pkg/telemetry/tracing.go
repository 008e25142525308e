package telemetry

import (
	"context"
	"time"

	"github.com/vango-dev/blockwire/pkg/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name.
const defaultTracerName = "blockwire"

// TracerConfig configures connection tracing.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "blockwire").
	TracerName string

	// Provider overrides the global tracer provider.
	Provider trace.TracerProvider
}

// TracerOption configures connection tracing.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = tp
	}
}

// Tracer starts spans for connections and the exchanges inside them.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer. Without WithTracerProvider it uses the global
// provider, so configure that in main() before starting a server:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		return &Tracer{tracer: otel.Tracer(config.TracerName)}
	}
	return &Tracer{tracer: config.Provider.Tracer(config.TracerName)}
}

// StartConn starts the root span of a connection from remote.
func (t *Tracer) StartConn(ctx context.Context, remote string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "blockwire.conn",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("net.peer.address", remote)),
		trace.WithTimestamp(time.Now()),
	)
}

// StartExchange starts a child span for the exchange run in state, such as
// a status query or a login.
func (t *Tracer) StartExchange(ctx context.Context, state protocol.State) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "blockwire."+state.String(),
		trace.WithAttributes(
			attribute.String("blockwire.state", state.String()),
			attribute.Int("blockwire.protocol_version", protocol.ProtocolVersion),
		),
	)
}

// End records err on span, sets its status and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("blockwire.error_kind", protocol.KindOf(err).String()))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

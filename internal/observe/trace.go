package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MrWong99/termfix"

// Tracer returns the termfix tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a span on [Tracer]. The caller ends it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

type documentKey struct{}

// StartDocument starts the root span for one batch document and records
// the document path in ctx so that [Logger] tags every line with it.
func StartDocument(ctx context.Context, path string) (context.Context, trace.Span) {
	ctx = context.WithValue(ctx, documentKey{}, path)
	return StartSpan(ctx, "batch.document",
		trace.WithAttributes(attribute.String("document.path", path)),
	)
}

// Document returns the path recorded by [StartDocument], or "".
func Document(ctx context.Context) string {
	p, _ := ctx.Value(documentKey{}).(string)
	return p
}

// CorrelationID returns the trace ID of the span in ctx, or "".
func CorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger tagged with the document, trace and
// span of ctx, whichever are present.
func Logger(ctx context.Context) *slog.Logger {
	var attrs []any
	if p := Document(ctx); p != "" {
		attrs = append(attrs, slog.String("document", p))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if len(attrs) == 0 {
		return slog.Default()
	}
	return slog.Default().With(attrs...)
}

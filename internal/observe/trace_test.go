package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useTracer installs an in-memory tracer provider globally for the test.
func useTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(orig)
		_ = tp.Shutdown(context.Background())
	})
	return exp
}

// captureLogs redirects the default logger to a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })
	return &buf
}

func TestStartDocument(t *testing.T) {
	exp := useTracer(t)

	ctx, span := StartDocument(context.Background(), "input/aula1.txt")
	if got := Document(ctx); got != "input/aula1.txt" {
		t.Errorf("Document = %q", got)
	}
	if CorrelationID(ctx) == "" {
		t.Error("no trace id on document context")
	}
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "batch.document" {
		t.Fatalf("spans = %+v, want one batch.document span", spans)
	}
	found := false
	for _, kv := range spans[0].Attributes {
		if kv.Key == "document.path" && kv.Value.AsString() == "input/aula1.txt" {
			found = true
		}
	}
	if !found {
		t.Error("document.path attribute missing")
	}
}

func TestLogger(t *testing.T) {
	useTracer(t)

	docCtx, span := StartDocument(context.Background(), "a.txt")
	defer span.End()

	tests := []struct {
		name    string
		ctx     context.Context
		want    []string
		notWant []string
	}{
		{"background", context.Background(), nil, []string{"trace_id", "document"}},
		{"document", docCtx, []string{"document=a.txt", "trace_id=", "span_id="}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			Logger(tt.ctx).Info("hello")
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("log %q missing %q", out, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("log %q should not contain %q", out, w)
				}
			}
		})
	}
}

func TestCorrelationID_Empty(t *testing.T) {
	t.Parallel()
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID = %q, want empty", got)
	}
	if got := Document(context.Background()); got != "" {
		t.Errorf("Document = %q, want empty", got)
	}
}

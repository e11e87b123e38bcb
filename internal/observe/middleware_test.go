package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type instrumented struct {
	metrics *Metrics
	reader  *sdkmetric.ManualReader
	spans   *tracetest.InMemoryExporter
	mux     *http.ServeMux
}

// newInstrumented wires a mux with /ok and /fail routes behind Middleware.
// It replaces the global tracer provider, so callers must not run in
// parallel.
func newInstrumented(t *testing.T) (*instrumented, http.Handler) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(orig)
		_ = tp.Shutdown(context.Background())
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /fail", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	in := &instrumented{metrics: m, reader: reader, spans: exp, mux: mux}
	return in, Middleware(m)(mux)
}

func TestMiddleware_Routes(t *testing.T) {
	tests := []struct {
		path      string
		wantCode  int
		wantSpan  string
		wantRoute string
		wantError bool
	}{
		{"/ok", http.StatusOK, "HTTP GET /ok", "GET /ok", false},
		{"/fail", http.StatusServiceUnavailable, "HTTP GET /fail", "GET /fail", true},
		{"/nope/123", http.StatusNotFound, "HTTP unmatched", "unmatched", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			in, h := newInstrumented(t)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if cid := rec.Header().Get("X-Correlation-ID"); len(cid) != 32 {
				t.Errorf("X-Correlation-ID = %q, want 32 hex chars", cid)
			}

			spans := in.spans.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("spans = %d, want 1", len(spans))
			}
			if spans[0].Name != tt.wantSpan {
				t.Errorf("span name = %q, want %q", spans[0].Name, tt.wantSpan)
			}
			if got := spans[0].Status.Code == codes.Error; got != tt.wantError {
				t.Errorf("span error = %v, want %v", got, tt.wantError)
			}

			var rm metricdata.ResourceMetrics
			if err := in.reader.Collect(context.Background(), &rm); err != nil {
				t.Fatalf("Collect: %v", err)
			}
			met := findMetric(rm, "termfix.http.request.duration")
			if met == nil {
				t.Fatal("duration metric not found")
			}
			hist := met.Data.(metricdata.Histogram[float64])
			if len(hist.DataPoints) != 1 {
				t.Fatalf("data points = %d, want 1", len(hist.DataPoints))
			}
			route, _ := hist.DataPoints[0].Attributes.Value("route")
			if route.AsString() != tt.wantRoute {
				t.Errorf("route attribute = %q, want %q", route.AsString(), tt.wantRoute)
			}
		})
	}
}

func TestMiddleware_ContinuesIncomingTrace(t *testing.T) {
	in, h := newInstrumented(t)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Correlation-ID"); got != traceID {
		t.Errorf("X-Correlation-ID = %q, want incoming trace %q", got, traceID)
	}
	if spans := in.spans.GetSpans(); len(spans) != 1 || spans[0].Parent.TraceID().String() != traceID {
		t.Errorf("span does not continue the incoming trace: %+v", spans)
	}
}

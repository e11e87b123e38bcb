package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the value of the int64 sum data point of metric name whose
// attributes contain key=value, or -1 when there is none.
func sumFor(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not a sum", name)
	}
	for _, dp := range sum.DataPoints {
		if key == "" {
			return dp.Value
		}
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value
		}
	}
	return -1
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.CorrectDuration.Record(ctx, 0.0004)
	m.CorrectDuration.Record(ctx, 0.002)
	m.LLMDuration.Record(ctx, 1.5)
	m.LLMDuration.Record(ctx, 3)

	rm := collect(t, reader)

	for _, name := range []string{"termfix.correct.duration", "termfix.llm.duration"} {
		t.Run(name, func(t *testing.T) {
			met := findMetric(rm, name)
			if met == nil {
				t.Fatalf("metric %q not found", name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is not a histogram", name)
			}
			if len(hist.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", name)
			}
			if got := hist.DataPoints[0].Count; got != 2 {
				t.Errorf("sample count = %d, want 2", got)
			}
		})
	}
}

func TestRecordCorrections(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCorrections(ctx, "pattern", 2)
	m.RecordCorrections(ctx, "pattern", 1)
	m.RecordCorrections(ctx, "fuzzy", 1)
	m.RecordCorrections(ctx, "context", 0)

	rm := collect(t, reader)
	if got := sumFor(t, rm, "termfix.corrections", "stage", "pattern"); got != 3 {
		t.Errorf("pattern corrections = %d, want 3", got)
	}
	if got := sumFor(t, rm, "termfix.corrections", "stage", "fuzzy"); got != 1 {
		t.Errorf("fuzzy corrections = %d, want 1", got)
	}
	if got := sumFor(t, rm, "termfix.corrections", "stage", "context"); got != -1 {
		t.Errorf("context corrections recorded (%d), want no data point", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCacheLookup(ctx, "terminology", true)
	m.RecordCacheLookup(ctx, "terminology", true)
	m.RecordCacheLookup(ctx, "terminology", false)
	m.RecordCacheLookup(ctx, "llm-response", false)
	m.RecordCacheEvictions(ctx, 4)

	rm := collect(t, reader)
	if got := sumFor(t, rm, "termfix.cache.hits", "kind", "terminology"); got != 2 {
		t.Errorf("terminology hits = %d, want 2", got)
	}
	if got := sumFor(t, rm, "termfix.cache.misses", "kind", "llm-response"); got != 1 {
		t.Errorf("llm-response misses = %d, want 1", got)
	}
	if got := sumFor(t, rm, "termfix.cache.evictions", "", ""); got != 4 {
		t.Errorf("evictions = %d, want 4", got)
	}
}

func TestProviderCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderRequest(ctx, "ollama", "ok")
	m.RecordProviderRequest(ctx, "ollama", "ok")
	m.RecordProviderRequest(ctx, "ollama", "error")
	m.RecordProviderError(ctx, "ollama", "complete")
	m.RecordDocument(ctx, "ok")

	rm := collect(t, reader)
	if got := sumFor(t, rm, "termfix.provider.requests", "status", "ok"); got != 2 {
		t.Errorf("ok requests = %d, want 2", got)
	}
	if got := sumFor(t, rm, "termfix.provider.errors", "kind", "complete"); got != 1 {
		t.Errorf("provider errors = %d, want 1", got)
	}
	if got := sumFor(t, rm, "termfix.documents", "status", "ok"); got != 1 {
		t.Errorf("documents = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}

package terminology_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/termfix/internal/observe"
	"github.com/MrWong99/termfix/internal/terminology"
)

func TestEngine_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	e := newEngine(t, scenarioTable(), terminology.WithMetrics(m))
	e.Correct("A cauza da filosofia segundo Tomas de Aquino")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var pattern int64
	var sawDuration bool
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			switch met.Name {
			case "termfix.corrections":
				sum := met.Data.(metricdata.Sum[int64])
				for _, dp := range sum.DataPoints {
					if v, ok := dp.Attributes.Value(attribute.Key("stage")); ok && v.AsString() == "pattern" {
						pattern += dp.Value
					}
				}
			case "termfix.correct.duration":
				hist := met.Data.(metricdata.Histogram[float64])
				sawDuration = len(hist.DataPoints) == 1 && hist.DataPoints[0].Count == 1
			}
		}
	}
	if pattern != 2 {
		t.Errorf("pattern corrections = %d, want 2", pattern)
	}
	if !sawDuration {
		t.Error("expected one correct.duration observation")
	}
}

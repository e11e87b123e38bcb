// Package observe provides the observability primitives shared by termfix:
// OpenTelemetry metrics, tracing helpers, a trace-aware structured logger,
// and HTTP middleware for the metrics endpoint.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped from /metrics. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all termfix metrics.
const meterName = "github.com/MrWong99/termfix"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms ---

	// CorrectDuration tracks the latency of one terminology pass over a text,
	// cache lookups included.
	CorrectDuration metric.Float64Histogram

	// LLMDuration tracks the latency of LLM rewrite calls.
	LLMDuration metric.Float64Histogram

	// --- Counters ---

	// Corrections counts applied corrections. Use with attribute:
	//   attribute.String("stage", ...)
	Corrections metric.Int64Counter

	// CacheHits counts cache lookups served from the store. Use with attribute:
	//   attribute.String("kind", ...)
	CacheHits metric.Int64Counter

	// CacheMisses counts cache lookups that fell through. Use with attribute:
	//   attribute.String("kind", ...)
	CacheMisses metric.Int64Counter

	// CacheEvictions counts entries evicted from the in-memory store.
	CacheEvictions metric.Int64Counter

	// ProviderRequests counts LLM provider calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// Documents counts documents processed by the batch driver. Use with
	// attribute:
	//   attribute.String("status", ...)
	Documents metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks requests to the operational endpoints. Use with attributes:
	//   attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// correctBuckets are histogram boundaries (in seconds) for in-memory
// correction passes.
var correctBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1,
}

// llmBuckets are histogram boundaries (in seconds) for model calls.
var llmBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.CorrectDuration, err = m.Float64Histogram("termfix.correct.duration",
		metric.WithDescription("Latency of a terminology correction pass."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(correctBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("termfix.llm.duration",
		metric.WithDescription("Latency of LLM rewrite calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(llmBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Corrections, err = m.Int64Counter("termfix.corrections",
		metric.WithDescription("Total applied corrections by pipeline stage."),
	); err != nil {
		return nil, err
	}
	if met.CacheHits, err = m.Int64Counter("termfix.cache.hits",
		metric.WithDescription("Total cache hits by namespace."),
	); err != nil {
		return nil, err
	}
	if met.CacheMisses, err = m.Int64Counter("termfix.cache.misses",
		metric.WithDescription("Total cache misses by namespace."),
	); err != nil {
		return nil, err
	}
	if met.CacheEvictions, err = m.Int64Counter("termfix.cache.evictions",
		metric.WithDescription("Total entries evicted from the in-memory cache."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("termfix.provider.requests",
		metric.WithDescription("Total LLM provider requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.Documents, err = m.Int64Counter("termfix.documents",
		metric.WithDescription("Total documents processed by status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("termfix.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("termfix.http.request.duration",
		metric.WithDescription("HTTP request latency by route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordCorrections adds n to the corrections counter for stage. Zero is
// not recorded.
func (m *Metrics) RecordCorrections(ctx context.Context, stage string, n int) {
	if n <= 0 {
		return
	}
	m.Corrections.Add(ctx, int64(n),
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

// RecordCacheLookup records a hit or a miss for the cache namespace kind.
func (m *Metrics) RecordCacheLookup(ctx context.Context, kind string, hit bool) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	if hit {
		m.CacheHits.Add(ctx, 1, attrs)
		return
	}
	m.CacheMisses.Add(ctx, 1, attrs)
}

// RecordCacheEvictions adds n to the eviction counter.
func (m *Metrics) RecordCacheEvictions(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.CacheEvictions.Add(ctx, int64(n))
}

// RecordProviderRequest records a provider request counter increment with
// the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordDocument records one processed document with its outcome.
func (m *Metrics) RecordDocument(ctx context.Context, status string) {
	m.Documents.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// Package observe provides the service's observability primitives:
// OpenTelemetry metrics exported to Prometheus, tracing helpers, and the
// HTTP middleware that ties them together.
//
// Tests should build a [Metrics] with [NewMetrics] and a dedicated
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/voiceclone/voiceclone"

// Metrics holds all OpenTelemetry metric instruments for the service.
type Metrics struct {
	// ProviderDuration tracks Speechify API latency. Use with attribute:
	//   attribute.String("operation", ...)
	ProviderDuration metric.Float64Histogram

	// ProviderRequests counts Speechify API calls. Use with attributes:
	//   attribute.String("operation", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// BillableCharacters counts characters billed by the speech endpoint.
	BillableCharacters metric.Int64Counter

	// AudioBytes counts decoded audio bytes written to the output directory.
	AudioBytes metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// remote synthesis calls, which can take several seconds for long inputs.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates all instruments using the given [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ProviderDuration, err = m.Float64Histogram("voiceclone.provider.duration",
		metric.WithDescription("Latency of Speechify API calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("voiceclone.provider.requests",
		metric.WithDescription("Total Speechify API requests by operation and status."),
	); err != nil {
		return nil, err
	}
	if met.BillableCharacters, err = m.Int64Counter("voiceclone.synthesis.billable_characters",
		metric.WithDescription("Characters billed by the speech endpoint."),
	); err != nil {
		return nil, err
	}
	if met.AudioBytes, err = m.Int64Counter("voiceclone.synthesis.audio_bytes",
		metric.WithDescription("Decoded audio bytes written to disk."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("voiceclone.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

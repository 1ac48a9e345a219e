// Package observe provides observability primitives for the relay:
// OpenTelemetry metrics bridged to a Prometheus /metrics endpoint.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-
// level default [Metrics] instance ([DefaultMetrics]) is provided for
// convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all relay metrics.
const meterName = "github.com/realityinspector/supply-drop-ai-oai-twilio-voice"

// Direction attribute values for FramesRelayed.
const (
	DirectionInbound  = "inbound"  // telephony → model
	DirectionOutbound = "outbound" // model → telephony
)

// DirectionAttr builds the direction attribute for FramesRelayed.
func DirectionAttr(direction string) attribute.KeyValue {
	return attribute.String("direction", direction)
}

// Metrics holds all OpenTelemetry metric instruments for the relay. All
// fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// CallsStarted counts calls that reached a start frame.
	CallsStarted metric.Int64Counter

	// ActiveCalls tracks the number of live bridge sessions.
	ActiveCalls metric.Int64UpDownCounter

	// FramesRelayed counts audio frames forwarded between the two
	// connections. Use with DirectionAttr.
	FramesRelayed metric.Int64Counter

	// TurnCancellations counts response.cancel messages sent after a
	// barge-in superseded an in-flight turn.
	TurnCancellations metric.Int64Counter

	// TranscodeErrors counts audio deltas that failed the base64 round
	// trip and were dropped.
	TranscodeErrors metric.Int64Counter

	// CallDuration tracks wall-clock call length.
	CallDuration metric.Float64Histogram
}

// durationBuckets defines histogram bucket boundaries (in seconds) sized
// for phone-call lifetimes.
var durationBuckets = []float64{
	1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CallsStarted, err = m.Int64Counter("voicerelay.calls.started",
		metric.WithDescription("Total calls that delivered a start frame."),
	); err != nil {
		return nil, err
	}
	if met.ActiveCalls, err = m.Int64UpDownCounter("voicerelay.calls.active",
		metric.WithDescription("Number of live bridge sessions."),
	); err != nil {
		return nil, err
	}
	if met.FramesRelayed, err = m.Int64Counter("voicerelay.frames.relayed",
		metric.WithDescription("Audio frames forwarded, by direction."),
	); err != nil {
		return nil, err
	}
	if met.TurnCancellations, err = m.Int64Counter("voicerelay.turns.cancelled",
		metric.WithDescription("In-flight responses cancelled after a barge-in."),
	); err != nil {
		return nil, err
	}
	if met.TranscodeErrors, err = m.Int64Counter("voicerelay.audio.transcode_errors",
		metric.WithDescription("Audio deltas dropped because the base64 round trip failed."),
	); err != nil {
		return nil, err
	}
	if met.CallDuration, err = m.Float64Histogram("voicerelay.call.duration",
		metric.WithDescription("Wall-clock call length."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
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

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen
// with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

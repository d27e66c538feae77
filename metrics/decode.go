package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeNormalized labels events that produced a record. Failures are
// labeled with the error class reported by the decoder instead.
const OutcomeNormalized = "normalized"

// DecodeMetrics instruments the event decoding pipeline.
type DecodeMetrics struct {
	chain string

	// Events processed, by kind, version tag and outcome.
	events *prometheus.CounterVec

	// Time spent resolving, decoding and normalizing one event.
	latencies *prometheus.HistogramVec

	// Highest block height fully processed.
	height *prometheus.GaugeVec
}

func NewDefaultDecodeMetrics(chain string) DecodeMetrics {
	m := DecodeMetrics{
		chain: chain,
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventnexus_decoded_events",
				Help: "How many events were processed, partitioned by kind, schema version and outcome.",
			},
			[]string{"chain", "kind", "version", "outcome"},
		),
		latencies: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventnexus_decode_latencies",
				Help:    "How long decoding and normalizing one event takes, partitioned by kind.",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"chain", "kind"},
		),
		height: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eventnexus_processed_height",
				Help: "Highest block height whose events were all processed.",
			},
			[]string{"chain"},
		),
	}
	m.events = registerOnce(m.events)
	m.latencies = registerOnce(m.latencies)
	m.height = registerOnce(m.height)
	return m
}

// Events returns the counter for events of kind@version with the given outcome.
// Version is empty when the event could not be resolved.
func (m *DecodeMetrics) Events(kind, version, outcome string) prometheus.Counter {
	return m.events.WithLabelValues(m.chain, kind, version, outcome)
}

// Latency starts a timer for one event of kind.
func (m *DecodeMetrics) Latency(kind string) *prometheus.Timer {
	return prometheus.NewTimer(m.latencies.WithLabelValues(m.chain, kind))
}

func (m *DecodeMetrics) ProcessedHeight() prometheus.Gauge {
	return m.height.WithLabelValues(m.chain)
}

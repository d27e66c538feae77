package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics instruments event sources and record sinks.
type StorageMetrics struct {
	// Name of the chain whose events are stored.
	chain string

	// Counts of storage operations.
	operations *prometheus.CounterVec

	// Latencies of storage operations.
	latencies *prometheus.HistogramVec

	// Hit rates of the local raw event cache.
	localCacheReads *prometheus.CounterVec
}

type CacheReadStatus string

const (
	CacheReadStatusHit      CacheReadStatus = "hit"
	CacheReadStatusMiss     CacheReadStatus = "miss"
	CacheReadStatusBadValue CacheReadStatus = "bad_value" // Cached value did not decode, likely written by an older build.
	CacheReadStatusError    CacheReadStatus = "error"
)

// NewDefaultStorageMetrics creates the storage instrumentation for chain.
func NewDefaultStorageMetrics(chain string) StorageMetrics {
	m := StorageMetrics{
		chain: chain,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventnexus_storage_operations",
				Help: "How many storage operations occur, partitioned by backend, operation and status.",
			},
			[]string{"chain", "backend", "operation", "status"},
		),
		latencies: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "eventnexus_storage_latencies",
				Help: "How long storage operations take, partitioned by backend and operation.",
			},
			[]string{"chain", "backend", "operation"},
		),
		localCacheReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventnexus_local_cache_reads",
				Help: "How many local cache reads occur, partitioned by status (hit, miss, bad_value, error).",
			},
			[]string{"chain", "status"},
		),
	}
	m.operations = registerOnce(m.operations)
	m.latencies = registerOnce(m.latencies)
	m.localCacheReads = registerOnce(m.localCacheReads)
	return m
}

// StorageOperations returns the counter for one backend operation outcome.
func (m *StorageMetrics) StorageOperations(backend, operation, status string) prometheus.Counter {
	return m.operations.WithLabelValues(m.chain, backend, operation, status)
}

// StorageLatencies starts a latency timer for one backend operation.
func (m *StorageMetrics) StorageLatencies(backend, operation string) *prometheus.Timer {
	return prometheus.NewTimer(m.latencies.WithLabelValues(m.chain, backend, operation))
}

func (m *StorageMetrics) LocalCacheReads(status CacheReadStatus) prometheus.Counter {
	return m.localCacheReads.WithLabelValues(m.chain, string(status))
}

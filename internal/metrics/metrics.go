// Package metrics exposes Prometheus instrumentation for the pieces of
// the spec that benefit most from operator visibility: connection churn,
// per-request-type outcomes, lock contention, cache behavior, and the
// coherence engine's chain length and failure rate. This is purely
// observational — spec.md has no admission-control non-goal that these
// metrics could violate.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "distshm_connections_accepted_total",
		Help: "Total TCP connections accepted by this member.",
	})

	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "distshm_connections_active",
		Help: "Connections currently being served by this member.",
	})

	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "distshm_requests_total",
		Help: "Requests handled, by request type and reply status.",
	}, []string{"type", "status"})

	LockWaitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "distshm_lock_wait_seconds",
		Help:    "Time spent blocked acquiring a per-address lock.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	LeaseExpirationsFired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "distshm_lease_expirations_total",
		Help: "Number of leases that expired and auto-released their lock.",
	})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "distshm_cache_hits_total",
		Help: "Cache reads that found the requested address in its slot.",
	})

	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "distshm_cache_misses_total",
		Help: "Cache reads that found the slot empty or held by another address.",
	})

	CacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "distshm_cache_evictions_total",
		Help: "Cache entries dropped, by an install over a different occupant or by an explicit remove.",
	})

	CoherenceChainLength = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "distshm_coherence_chain_length",
		Help:    "Number of copy-holders notified per write-update sweep.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})

	CoherenceFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "distshm_coherence_failures_total",
		Help: "Write-update sweeps that failed at some hop and pruned holders.",
	})

	HostCPUPercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "distshm_host_cpu_percent",
		Help: "Host CPU utilization percent, sampled periodically.",
	})

	ProcessMemoryBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "distshm_process_memory_bytes",
		Help: "Resident memory used by this member process.",
	})
)

func init() {
	prometheus.MustRegister(
		ConnectionsAccepted,
		ConnectionsActive,
		RequestsTotal,
		LockWaitSeconds,
		LeaseExpirationsFired,
		CacheHits,
		CacheMisses,
		CacheEvictions,
		CoherenceChainLength,
		CoherenceFailures,
		HostCPUPercent,
		ProcessMemoryBytes,
	)
}

// Handler returns the Prometheus scrape handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

package reconcile

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsProcessedTotal *prometheus.CounterVec
	writeCallsTotal       *prometheus.CounterVec

	metricsOnce sync.Once
)

// InitMetrics registers the engine's Prometheus metrics. Call once at
// startup when metrics are enabled; recording is a no-op otherwise.
func InitMetrics() {
	metricsOnce.Do(func() {
		recordsProcessedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountsync_records_processed_total",
				Help: "Total number of records processed, by outcome",
			},
			[]string{"outcome"},
		)

		writeCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountsync_vault_write_calls_total",
				Help: "Total number of write calls issued to the vault, by operation",
			},
			[]string{"operation"},
		)
	})
}

func observeOutcome(outcome string) {
	if recordsProcessedTotal != nil {
		recordsProcessedTotal.WithLabelValues(outcome).Inc()
	}
}

func observeWrite(operation string) {
	if writeCallsTotal != nil {
		writeCallsTotal.WithLabelValues(operation).Inc()
	}
}

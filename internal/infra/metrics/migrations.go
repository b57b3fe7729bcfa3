package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(unitsProcessedTotal, batchesTotal, batchDurationSeconds) }

var unitsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "migration_units_processed_total",
		Help: "Total number of migration units reaching a terminal status.",
	},
	[]string{"status"}, // 'succeeded', 'failed'
)

var batchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "migration_batches_total",
		Help: "Total number of migration batches, labeled by final status.",
	},
	[]string{"status"},
)

var batchDurationSeconds = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "migration_batch_duration_seconds",
		Help:    "Wall-clock duration of a full batch run.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~68m
	},
)

func IncUnit(status string) {
	unitsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func IncBatch(status string) {
	batchesTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveBatchDuration(seconds float64) {
	batchDurationSeconds.Observe(seconds)
}

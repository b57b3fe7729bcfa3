package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(workerQueueDepth, workerTasksDroppedTotal) }

var workerQueueDepth = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "migration_worker_queue_depth",
		Help: "Batch tasks waiting for a free migration worker.",
	},
)

var workerTasksDroppedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "migration_worker_tasks_dropped_total",
		Help: "Tasks rejected because the migration worker queue was full.",
	},
)

func SetWorkerQueueDepth(n int) {
	workerQueueDepth.Set(float64(n))
}

func IncWorkerTaskDropped() {
	workerTasksDroppedTotal.Inc()
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(stepOutcomesTotal) }

var stepOutcomesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "migration_step_outcomes_total",
		Help: "Automation step outcomes by step name and outcome class.",
	},
	[]string{"step", "class"},
)

func ObserveStep(step, class string) {
	stepOutcomesTotal.WithLabelValues(norm(step), norm(class)).Inc()
}

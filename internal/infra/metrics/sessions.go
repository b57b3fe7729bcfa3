package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sessionRestoresTotal, sessionStaleTotal) }

var sessionRestoresTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "migration_session_restores_total",
		Help: "Session restore attempts before login, labeled by whether a stored token existed.",
	},
	[]string{"restored"},
)

var sessionStaleTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "migration_session_stale_total",
		Help: "Restored sessions that the destination no longer accepted.",
	},
)

func IncSessionRestore(restored bool) {
	v := "false"
	if restored {
		v = "true"
	}
	sessionRestoresTotal.WithLabelValues(v).Inc()
}

func IncSessionStale() {
	sessionStaleTotal.Inc()
}

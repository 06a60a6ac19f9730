package bridge

import "github.com/prometheus/client_golang/prometheus"

// Call outcomes used as metric labels
const (
	outcomeResolved  = "resolved"
	outcomeRejected  = "rejected"
	outcomeAbandoned = "abandoned"
)

var (
	callsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitbridge",
		Subsystem: "bridge",
		Name:      "calls_total",
		Help:      "Number of plugin calls handled, labeled by method and outcome.",
	}, []string{"method", "outcome"})

	callDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitbridge",
		Subsystem: "bridge",
		Name:      "call_duration_seconds",
		Help:      "Time from invoking a plugin method until the call settled.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"method"})

	pendingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitbridge",
		Subsystem: "bridge",
		Name:      "calls_pending",
		Help:      "Number of plugin calls waiting to be settled.",
	})
)

func init() {
	prometheus.MustRegister(callsCounter, callDuration, pendingGauge)
}

package orchestrator

import "github.com/prometheus/client_golang/prometheus"

var (
	residentSlots = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hearthd",
		Subsystem: "orchestrator",
		Name:      "resident_slots",
		Help:      "Model slots not in the cold state",
	})

	evictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hearthd",
		Subsystem: "orchestrator",
		Name:      "evictions_total",
		Help:      "LRU evictions performed to admit a model",
	})

	idleUnloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hearthd",
		Subsystem: "orchestrator",
		Name:      "idle_unloads_total",
		Help:      "Slots reclaimed by the idle-timeout sweep",
	})

	workerSpawnsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hearthd",
		Subsystem: "orchestrator",
		Name:      "worker_spawns_total",
		Help:      "Inference worker processes spawned",
	})

	collapsesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hearthd",
		Subsystem: "orchestrator",
		Name:      "collapses_total",
		Help:      "Collapse-to-zero operations completed",
	})

	generateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hearthd",
		Subsystem: "orchestrator",
		Name:      "generate_duration_seconds",
		Help:      "Wall time of worker task exchanges",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(residentSlots, evictionsTotal, idleUnloadsTotal,
		workerSpawnsTotal, collapsesTotal, generateDuration)
}

package reconcile

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	refreshes   *prometheus.CounterVec
	settles     *prometheus.CounterVec
	pollEntries prometheus.Gauge
	probeErrors prometheus.Counter
	publishes   *prometheus.CounterVec
}

// NewMetrics creates the engine collectors and registers them on reg.
// A nil reg leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netswitch",
			Name:      "refresh_total",
			Help:      "Inventory refresh cycles by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		settles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netswitch",
			Name:      "settle_total",
			Help:      "Poll entries settled, by reason.",
		}, []string{"reason"}),
		pollEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netswitch",
			Name:      "poll_entries",
			Help:      "Interfaces currently being polled for a settled state.",
		}),
		probeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netswitch",
			Name:      "probe_errors_total",
			Help:      "Single-interface probes that failed.",
		}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netswitch",
			Name:      "publish_total",
			Help:      "Events published by the engine, by topic.",
		}, []string{"topic"}),
	}
	if reg != nil {
		reg.MustRegister(m.refreshes, m.settles, m.pollEntries, m.probeErrors, m.publishes)
	}
	return m
}

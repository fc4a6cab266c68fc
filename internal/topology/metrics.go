package topology

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "netinspect"

// Metrics holds the topology instrumentation. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	cacheRequests     *prometheus.CounterVec
	builds            *prometheus.CounterVec
	buildDuration     prometheus.Histogram
	discoveryFailures *prometheus.CounterVec
	snapshotNodes     prometheus.Gauge
	snapshotLinks     prometheus.Gauge
}

// NewMetrics creates the topology collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "topology",
			Name:      "cache_requests_total",
			Help:      "Topology cache lookups by result (hit, miss, bypass).",
		}, []string{"result"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "topology",
			Name:      "builds_total",
			Help:      "Topology builds by result (success, failure).",
		}, []string{"result"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "topology",
			Name:      "build_duration_seconds",
			Help:      "Wall time of one topology build.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		discoveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "topology",
			Name:      "discovery_failures_total",
			Help:      "Devices skipped during a build by reason (credential, discovery).",
		}, []string{"reason"}),
		snapshotNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "topology",
			Name:      "snapshot_nodes",
			Help:      "Nodes in the cached topology snapshot.",
		}),
		snapshotLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "topology",
			Name:      "snapshot_links",
			Help:      "Links in the cached topology snapshot.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.cacheRequests,
			m.builds,
			m.buildDuration,
			m.discoveryFailures,
			m.snapshotNodes,
			m.snapshotLinks,
		)
	}
	return m
}

func (m *Metrics) cacheResult(result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) buildResult(ok bool, seconds float64) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.builds.WithLabelValues(result).Inc()
	m.buildDuration.Observe(seconds)
}

func (m *Metrics) deviceSkipped(reason string) {
	if m == nil {
		return
	}
	m.discoveryFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) snapshotStored(nodes, links int) {
	if m == nil {
		return
	}
	m.snapshotNodes.Set(float64(nodes))
	m.snapshotLinks.Set(float64(links))
}

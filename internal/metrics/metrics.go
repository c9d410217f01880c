// Package metrics records topology generation and routing metrics with
// Prometheus collectors on a private registry.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Benny93/superpeer-go/internal/topology"
)

// Path kinds and results used as label values.
const (
	PathShortest = "shortest"
	PathBackbone = "backbone"

	ResultComplete   = "complete"
	ResultIncomplete = "incomplete"
	ResultEmpty      = "empty"
	ResultError      = "error"
)

// Metrics holds the collectors for one engine.
type Metrics struct {
	registry *prometheus.Registry

	generations        prometheus.Counter
	generationDuration prometheus.Histogram
	nodes              *prometheus.GaugeVec
	edges              *prometheus.GaugeVec
	peerShortfall      prometheus.Gauge
	peerSelfDraws      prometheus.Gauge
	pathRequests       *prometheus.CounterVec
	pathHops           *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		generations: factory.NewCounter(prometheus.CounterOpts{
			Name: "superpeer_generations_total",
			Help: "Total topology generations",
		}),
		generationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "superpeer_generation_duration_seconds",
			Help:    "Topology generation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}),
		nodes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "superpeer_nodes",
			Help: "Nodes in the current topology by tier",
		}, []string{"kind"}),
		edges: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "superpeer_edges",
			Help: "Edges in the current topology by kind",
		}, []string{"kind"}),
		peerShortfall: factory.NewGauge(prometheus.GaugeOpts{
			Name: "superpeer_peer_shortfall",
			Help: "Peer edges missing from the target in the current topology",
		}),
		peerSelfDraws: factory.NewGauge(prometheus.GaugeOpts{
			Name: "superpeer_peer_self_draws",
			Help: "Random peer draws that selected the node itself in the current topology",
		}),
		pathRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "superpeer_path_requests_total",
			Help: "Path requests by path kind and result",
		}, []string{"path", "result"}),
		pathHops: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "superpeer_path_hops",
			Help:    "Hops of resolved paths",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		}, []string{"path"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveGeneration records the outcome of a generation run.
func (m *Metrics) ObserveGeneration(stats *topology.Stats) {
	m.generations.Inc()
	m.generationDuration.Observe(stats.Duration.Seconds())
	m.nodes.WithLabelValues("super").Set(float64(stats.SuperCount))
	m.nodes.WithLabelValues("regular").Set(float64(stats.RegularCount))
	m.edges.WithLabelValues("backbone").Set(float64(stats.BackboneEdges))
	m.edges.WithLabelValues("spoke").Set(float64(stats.SpokeEdges))
	m.edges.WithLabelValues("peer").Set(float64(stats.PeerEdges))
	m.peerShortfall.Set(float64(stats.PeerShortfall))
	m.peerSelfDraws.Set(float64(stats.SelfDraws))
}

// ObservePath records a path request. hops is ignored unless the result is
// complete.
func (m *Metrics) ObservePath(kind, result string, hops int) {
	m.pathRequests.WithLabelValues(kind, result).Inc()
	if result == ResultComplete {
		m.pathHops.WithLabelValues(kind).Observe(float64(hops))
	}
}

// WriteTextfile writes every metric in the text exposition format, for
// pickup by a node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

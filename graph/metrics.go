package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics exposes per-run, per-node execution metrics under the
// "workflow_engine" namespace:
//
//   - node_latency_ms (histogram): node execution duration, labeled by
//     run_id, node_id, node_type, status.
//   - node_retries_total (counter): failed node attempts seen by the retry
//     wrapper, the final one included, labeled by run_id, node_id.
//   - active_streams (gauge): agent nodes currently streaming tokens.
//   - stream_chunks_total (counter): node_streaming broadcasts actually
//     emitted (post-throttle), labeled by run_id, node_id.
type PrometheusMetrics struct {
	nodeLatency   *prometheus.HistogramVec
	retries       *prometheus.CounterVec
	activeStreams prometheus.Gauge
	streamChunks  *prometheus.CounterVec
}

// NewPrometheusMetrics registers all metrics with registry. Pass nil to use
// prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		nodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workflow_engine",
			Name:      "node_latency_ms",
			Help:      "Node execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000, 120000},
		}, []string{"run_id", "node_id", "node_type", "status"}),

		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workflow_engine",
			Name:      "node_retries_total",
			Help:      "Failed node attempts seen by the retry wrapper",
		}, []string{"run_id", "node_id"}),

		activeStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "workflow_engine",
			Name:      "active_streams",
			Help:      "Agent nodes currently streaming tokens",
		}),

		streamChunks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workflow_engine",
			Name:      "stream_chunks_total",
			Help:      "node_streaming events emitted after throttling",
		}, []string{"run_id", "node_id"}),
	}
}

func (pm *PrometheusMetrics) recordLatency(runID, nodeID string, nodeType NodeType, latency time.Duration, status string) {
	if pm == nil {
		return
	}
	pm.nodeLatency.WithLabelValues(runID, nodeID, string(nodeType), status).Observe(float64(latency.Milliseconds()))
}

func (pm *PrometheusMetrics) incrementRetry(runID, nodeID string) {
	if pm == nil {
		return
	}
	pm.retries.WithLabelValues(runID, nodeID).Inc()
}

func (pm *PrometheusMetrics) streamStarted() {
	if pm == nil {
		return
	}
	pm.activeStreams.Inc()
}

func (pm *PrometheusMetrics) streamEnded() {
	if pm == nil {
		return
	}
	pm.activeStreams.Dec()
}

func (pm *PrometheusMetrics) incrementStreamChunk(runID, nodeID string) {
	if pm == nil {
		return
	}
	pm.streamChunks.WithLabelValues(runID, nodeID).Inc()
}

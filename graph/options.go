// Package graph implements a level-parallel workflow execution engine for
// AI-agent orchestration graphs: agents, tools, branches, loops, and
// meta-agent recursion over a directed graph of nodes.
package graph

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/veltrix/workflow-engine/graph/agent"
	"github.com/veltrix/workflow-engine/graph/broadcast"
	"github.com/veltrix/workflow-engine/graph/filestore"
	"github.com/veltrix/workflow-engine/graph/tool"
)

// Option configures an Engine. Options compose: later options override
// earlier ones when they set the same field.
type Option func(*engineConfig) error

type engineConfig struct {
	logger       zerolog.Logger
	metrics      *PrometheusMetrics
	costTracker  *CostTracker
	broadcaster  broadcast.Broadcaster
	agents       *agent.Registry
	tools        *tool.Registry
	files        filestore.FileStore
	maxDepth     int
	runTimeout   time.Duration
	usageSink    func(model string, inputTokens, outputTokens int, nodeID string)
}

func defaultConfig() *engineConfig {
	return &engineConfig{
		logger:     zerolog.Nop(),
		broadcaster: broadcast.Null(),
		agents:     agent.NewRegistry(),
		tools:      tool.NewRegistry(),
		files:      filestore.NewMemory(),
		maxDepth:   3,
		runTimeout: 0,
	}
}

// WithLogger sets the structured logger used for run/node lifecycle events.
// Default is a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *engineConfig) error {
		c.logger = l
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection for node latency,
// retries, and active streams.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(c *engineConfig) error {
		c.metrics = m
		return nil
	}
}

// WithCostTracker attaches a cost tracker that records token usage and
// estimated spend for every agent invocation.
func WithCostTracker(ct *CostTracker) Option {
	return func(c *engineConfig) error {
		c.costTracker = ct
		return nil
	}
}

// WithBroadcaster sets the sole write-only observer of run progress. Default
// is a null broadcaster that discards every event.
func WithBroadcaster(b broadcast.Broadcaster) Option {
	return func(c *engineConfig) error {
		if b != nil {
			c.broadcaster = b
		}
		return nil
	}
}

// WithAgentRegistry overrides the registry of available AgentProviders.
func WithAgentRegistry(r *agent.Registry) Option {
	return func(c *engineConfig) error {
		if r != nil {
			c.agents = r
		}
		return nil
	}
}

// WithToolRegistry overrides the registry of available Tools.
func WithToolRegistry(r *tool.Registry) Option {
	return func(c *engineConfig) error {
		if r != nil {
			c.tools = r
		}
		return nil
	}
}

// WithFileStore overrides the artifact store that input nodes consult when
// they reference a fileId.
func WithFileStore(fs filestore.FileStore) Option {
	return func(c *engineConfig) error {
		if fs != nil {
			c.files = fs
		}
		return nil
	}
}

// WithMaxRecursionDepth bounds meta_agent sub-engine nesting. Default 3.
func WithMaxRecursionDepth(n int) Option {
	return func(c *engineConfig) error {
		c.maxDepth = n
		return nil
	}
}

// WithRunTimeout bounds the total wall-clock time of a single Run call. Zero
// (the default) means no run-level timeout.
func WithRunTimeout(d time.Duration) Option {
	return func(c *engineConfig) error {
		c.runTimeout = d
		return nil
	}
}

// WithUsageSink registers a callback invoked after every agent call with its
// token usage, independent of the cost tracker.
func WithUsageSink(fn func(model string, inputTokens, outputTokens int, nodeID string)) Option {
	return func(c *engineConfig) error {
		c.usageSink = fn
		return nil
	}
}

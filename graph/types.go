// Package graph implements the workflow execution engine: it interprets a
// user-defined directed graph of heterogeneous nodes (AI-model calls, tool
// invocations, control-flow primitives, chunkers, and recursive sub-workflows)
// and executes it with level-parallel scheduling, token-level streaming,
// retry/fallback semantics, variable propagation, and progress broadcasting.
package graph

// NodeType is the closed set of node kinds the engine understands.
type NodeType string

// The enumerated node kinds. Unknown values are rejected when a nested
// workflowDefinition is decoded, and fail the node at dispatch otherwise.
const (
	NodeInput      NodeType = "input"
	NodeOutput     NodeType = "output"
	NodeAgent      NodeType = "agent"
	NodeTool       NodeType = "tool"
	NodeAggregator NodeType = "aggregator"
	NodeCondition  NodeType = "condition"
	NodeSwitch     NodeType = "switch"
	NodeLoop       NodeType = "loop"
	NodeValidator  NodeType = "validator"
	NodeDelay      NodeType = "delay"
	NodeChunker    NodeType = "chunker"
	NodeMetaAgent  NodeType = "meta_agent"
)

func (t NodeType) valid() bool {
	switch t {
	case NodeInput, NodeOutput, NodeAgent, NodeTool, NodeAggregator, NodeCondition,
		NodeSwitch, NodeLoop, NodeValidator, NodeDelay, NodeChunker, NodeMetaAgent:
		return true
	}
	return false
}

// Data is the free-form configuration bag carried by a Node. Keys arrive from
// the workflow's external JSON form in either camelCase or snake_case; callers
// should read through the String/Int/Float/Bool accessors below rather than
// indexing the map directly, so the dual-lookup normalization happens in one
// place (see spec's "CamelCase/snake_case dual lookups" design note).
type Data map[string]interface{}

// String reads data[camel], falling back to data[snake], falling back to def.
func (d Data) String(camel, snake, def string) string {
	if v, ok := d[camel]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	if v, ok := d[snake]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int reads an integer-valued key, accepting float64 (JSON numbers decode as
// float64) and int, trying the camelCase key then the snake_case key.
func (d Data) Int(camel, snake string, def int) int {
	if v, ok := numeric(d, camel); ok {
		return int(v)
	}
	if v, ok := numeric(d, snake); ok {
		return int(v)
	}
	return def
}

// Float reads a float-valued key the same way Int does.
func (d Data) Float(camel, snake string, def float64) float64 {
	if v, ok := numeric(d, camel); ok {
		return v
	}
	if v, ok := numeric(d, snake); ok {
		return v
	}
	return def
}

// Bool reads a boolean-valued key, trying camelCase then snake_case.
func (d Data) Bool(camel, snake string, def bool) bool {
	if v, ok := d[camel]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	if v, ok := d[snake]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Map reads a nested map-valued key.
func (d Data) Map(camel, snake string) map[string]interface{} {
	if v, ok := d[camel]; ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	if v, ok := d[snake]; ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}

func numeric(d Data, key string) (float64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Node is one vertex of a Workflow. Position is presentational and ignored by
// the engine.
type Node struct {
	ID       string
	Type     NodeType
	Data     Data
	Position map[string]float64
}

// Edge is a directed, labeled connection between two nodes. Label is empty or
// one of: "true", "false", "pass", "fail", a switch case value, or "default".
type Edge struct {
	ID     string
	Source string
	Target string
	Label  string
}

// Workflow is an immutable (Nodes, Edges) pair: the engine's sole input.
type Workflow struct {
	Nodes []Node
	Edges []Edge
}

// nodeByID indexes Nodes for O(1) lookup; built once per run.
func (w *Workflow) nodeByID() map[string]*Node {
	m := make(map[string]*Node, len(w.Nodes))
	for i := range w.Nodes {
		m[w.Nodes[i].ID] = &w.Nodes[i]
	}
	return m
}

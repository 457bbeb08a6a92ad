package graph

import "fmt"

// color is the 3-coloring state used by back-edge detection DFS.
type color int

const (
	white color = iota
	gray
	black
)

// Analyzer produces a DAG view of a Workflow: the set of back edges that
// would otherwise make it cyclic, level-parallel topological order over the
// remaining DAG edges, and loop-body membership for graph-level loops.
//
// DFS order is deterministic: nodes are visited in their defined order and
// successors in edge-declaration order, so loop-body identification is
// reproducible across runs of the same Workflow.
type Analyzer struct {
	wf       *Workflow
	nodeIdx  map[string]*Node
	outEdges map[string][]*Edge // outgoing edges in declaration order, keyed by source
	inEdges  map[string][]*Edge // incoming edges in declaration order, keyed by target
}

// Analysis is the result of analyzing a Workflow.
type Analysis struct {
	BackEdges map[string]bool // edge id -> true
	DAGEdges  []Edge
	Incoming  map[string][]Edge // DAG-only, keyed by node id
	Outgoing  map[string][]Edge // DAG-only, keyed by node id
	Levels    [][]string        // topological levels; nodes within a level are unordered
}

// NewAnalyzer builds an Analyzer over wf, validating that every edge
// references a known node.
func NewAnalyzer(wf *Workflow) (*Analyzer, error) {
	nodeIdx := wf.nodeByID()
	out := make(map[string][]*Edge, len(wf.Nodes))
	in := make(map[string][]*Edge, len(wf.Nodes))
	for i := range wf.Edges {
		e := &wf.Edges[i]
		if _, ok := nodeIdx[e.Source]; !ok {
			return nil, &EngineError{Message: fmt.Sprintf("edge %s references unknown source node %s", e.ID, e.Source), Code: "MALFORMED_GRAPH", Cause: ErrMalformedGraph}
		}
		if _, ok := nodeIdx[e.Target]; !ok {
			return nil, &EngineError{Message: fmt.Sprintf("edge %s references unknown target node %s", e.ID, e.Target), Code: "MALFORMED_GRAPH", Cause: ErrMalformedGraph}
		}
		out[e.Source] = append(out[e.Source], e)
		in[e.Target] = append(in[e.Target], e)
	}
	return &Analyzer{wf: wf, nodeIdx: nodeIdx, outEdges: out, inEdges: in}, nil
}

// Analyze runs back-edge detection and builds topological levels over the
// remaining DAG.
func (a *Analyzer) Analyze() (*Analysis, error) {
	backEdges := a.detectBackEdges()

	dagOut := make(map[string][]Edge, len(a.nodeIdx))
	dagIn := make(map[string][]Edge, len(a.nodeIdx))
	var dagEdges []Edge
	for i := range a.wf.Edges {
		e := a.wf.Edges[i]
		if backEdges[e.ID] {
			continue
		}
		dagOut[e.Source] = append(dagOut[e.Source], e)
		dagIn[e.Target] = append(dagIn[e.Target], e)
		dagEdges = append(dagEdges, e)
	}

	levels, err := a.topologicalLevels(dagOut, dagIn)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		BackEdges: backEdges,
		DAGEdges:  dagEdges,
		Incoming:  dagIn,
		Outgoing:  dagOut,
		Levels:    levels,
	}, nil
}

// detectBackEdges runs DFS with 3-coloring over the original graph (including
// would-be-cyclic edges). An edge to a gray node is a back-edge. Visitation
// order is deterministic: Nodes in their defined order, successors in
// edge-declaration order.
func (a *Analyzer) detectBackEdges() map[string]bool {
	colors := make(map[string]color, len(a.wf.Nodes))
	back := make(map[string]bool)

	var visit func(id string)
	visit = func(id string) {
		colors[id] = gray
		for _, e := range a.outEdges[id] {
			switch colors[e.Target] {
			case white:
				visit(e.Target)
			case gray:
				back[e.ID] = true
			case black:
				// cross/forward edge, not a back-edge
			}
		}
		colors[id] = black
	}

	for i := range a.wf.Nodes {
		id := a.wf.Nodes[i].ID
		if colors[id] == white {
			visit(id)
		}
	}
	return back
}

// topologicalLevels runs Kahn's algorithm over dagOut/dagIn, grouping nodes
// into "generations": level 0 has zero in-degree, level k's predecessors all
// lie in levels < k.
func (a *Analyzer) topologicalLevels(dagOut, dagIn map[string][]Edge) ([][]string, error) {
	inDegree := make(map[string]int, len(a.wf.Nodes))
	for i := range a.wf.Nodes {
		inDegree[a.wf.Nodes[i].ID] = len(dagIn[a.wf.Nodes[i].ID])
	}

	remaining := len(a.wf.Nodes)
	var levels [][]string

	for remaining > 0 {
		var level []string
		for i := range a.wf.Nodes {
			id := a.wf.Nodes[i].ID
			if inDegree[id] == 0 {
				level = append(level, id)
			}
		}
		if len(level) == 0 {
			return nil, &EngineError{Message: "cycle detected in DAG after back-edge removal", Code: "MALFORMED_GRAPH", Cause: ErrMalformedGraph}
		}
		levels = append(levels, level)
		for _, id := range level {
			inDegree[id] = -1 // mark removed
			remaining--
			for _, e := range dagOut[id] {
				inDegree[e.Target]--
			}
		}
	}
	return levels, nil
}

// LoopBody returns the node ids forming the body of a graph-level loop:
// forward(loopNode) ∩ backward(backEdgeSource), where forward excludes
// loopNode and backward excludes loopNode.
func (a *Analysis) LoopBody(loopNodeID, backEdgeSourceID string) map[string]bool {
	forward := reachableForward(a.Outgoing, loopNodeID)
	delete(forward, loopNodeID)

	backward := reachableBackward(a.Incoming, backEdgeSourceID)
	delete(backward, loopNodeID)

	body := make(map[string]bool)
	for id := range forward {
		if backward[id] {
			body[id] = true
		}
	}
	return body
}

func reachableForward(out map[string][]Edge, start string) map[string]bool {
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range out[cur] {
			if !seen[e.Target] {
				seen[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	return seen
}

func reachableBackward(in map[string][]Edge, start string) map[string]bool {
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range in[cur] {
			if !seen[e.Source] {
				seen[e.Source] = true
				queue = append(queue, e.Source)
			}
		}
	}
	return seen
}

// BackEdgeTargeting returns, for each node id, the set of back-edge source
// node ids whose back-edge targets it. A loop node with a non-empty result
// here is driven as a graph-level loop by the Loop Driver.
func (a *Analysis) BackEdgeTargeting(wf *Workflow) map[string][]string {
	targets := make(map[string][]string)
	for i := range wf.Edges {
		e := wf.Edges[i]
		if a.BackEdges[e.ID] {
			targets[e.Target] = append(targets[e.Target], e.Source)
		}
	}
	return targets
}

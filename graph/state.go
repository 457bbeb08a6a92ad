package graph

import (
	"strings"
	"sync"
	"time"
)

// NodeStatus is a node's lifecycle state within one run. Besides the fixed
// waiting/running/done/error values, handlers may write a free-form progress
// string (e.g. "chunk 2/5") while running.
type NodeStatus string

const (
	StatusWaiting NodeStatus = "waiting"
	StatusRunning NodeStatus = "running"
	StatusDone    NodeStatus = "done"
	StatusError   NodeStatus = "error"
)

// RunStatus is the pipeline-level status reported alongside per-node status.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunError     RunStatus = "error"
)

// runState is the per-run mutable state owned by one Engine.Run invocation.
// Fields written by concurrent same-level node tasks (blockedEdges, skipNodes,
// variables, lastStream, results, statuses) are guarded by mu; writes to
// blockedEdges are monotone-add only, matching the invariant that it never
// shrinks during a run.
type runState struct {
	mu sync.Mutex

	results      map[string]string
	statuses     map[string]NodeStatus
	progress     map[string]string // free-form progress text per node, while running
	blockedEdges map[string]bool
	skipNodes    map[string]bool
	variables    map[string]string
	lastStream   map[string]time.Time

	status RunStatus
	errMsg string
}

func newRunState(wf *Workflow) *runState {
	rs := &runState{
		results:      make(map[string]string),
		statuses:     make(map[string]NodeStatus, len(wf.Nodes)),
		progress:     make(map[string]string),
		blockedEdges: make(map[string]bool),
		skipNodes:    make(map[string]bool),
		variables:    make(map[string]string),
		lastStream:   make(map[string]time.Time),
		status:       RunPending,
	}
	for _, n := range wf.Nodes {
		rs.statuses[n.ID] = StatusWaiting
	}
	return rs
}

func (rs *runState) setStatus(nodeID string, s NodeStatus) {
	rs.mu.Lock()
	rs.statuses[nodeID] = s
	if s != StatusRunning {
		delete(rs.progress, nodeID)
	}
	rs.mu.Unlock()
}

func (rs *runState) setProgress(nodeID, text string) {
	rs.mu.Lock()
	rs.progress[nodeID] = text
	rs.mu.Unlock()
}

func (rs *runState) setResult(nodeID, result string) {
	rs.mu.Lock()
	rs.results[nodeID] = result
	rs.mu.Unlock()
}

func (rs *runState) result(nodeID string) string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.results[nodeID]
}

func (rs *runState) blockEdges(edgeIDs ...string) {
	rs.mu.Lock()
	for _, id := range edgeIDs {
		rs.blockedEdges[id] = true
	}
	rs.mu.Unlock()
}

func (rs *runState) isBlocked(edgeID string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.blockedEdges[edgeID]
}

func (rs *runState) addSkip(nodeIDs ...string) {
	rs.mu.Lock()
	for _, id := range nodeIDs {
		rs.skipNodes[id] = true
	}
	rs.mu.Unlock()
}

func (rs *runState) isSkipped(nodeID string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.skipNodes[nodeID]
}

func (rs *runState) setVariable(name, value string) {
	rs.mu.Lock()
	rs.variables[name] = value
	rs.mu.Unlock()
}

func (rs *runState) variable(name string) (string, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	v, ok := rs.variables[name]
	return v, ok
}

// throttleStream reports whether a node_streaming broadcast for nodeID may be
// emitted now, enforcing the 80ms-per-node throttle. Passing reset clears the
// throttle first so the caller's emit always succeeds (used before the final,
// always-emitted chunk).
func (rs *runState) throttleStream(nodeID string, reset bool) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if reset {
		delete(rs.lastStream, nodeID)
		return true
	}
	now := time.Now()
	last, ok := rs.lastStream[nodeID]
	if ok && now.Sub(last) < 80*time.Millisecond {
		return false
	}
	rs.lastStream[nodeID] = now
	return true
}

func (rs *runState) setRunStatus(s RunStatus) {
	rs.mu.Lock()
	rs.status = s
	rs.mu.Unlock()
}

func (rs *runState) setErr(msg string) {
	rs.mu.Lock()
	rs.status = RunError
	rs.errMsg = msg
	rs.mu.Unlock()
}

// snapshot captures a point-in-time copy for broadcasting, with results
// optionally truncated to 500 chars per the workflow_status event contract.
func (rs *runState) snapshot(truncate bool) (status RunStatus, statuses map[string]string, results map[string]string, errMsg string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	statuses = make(map[string]string, len(rs.statuses))
	for id, s := range rs.statuses {
		if s == StatusRunning {
			if p, ok := rs.progress[id]; ok && p != "" {
				statuses[id] = p
				continue
			}
		}
		statuses[id] = string(s)
	}

	results = make(map[string]string, len(rs.results))
	for id, r := range rs.results {
		if truncate && len(r) > 500 {
			r = r[:500]
		}
		results[id] = r
	}

	return rs.status, statuses, results, rs.errMsg
}

// substituteVariables replaces every occurrence of "{var:NAME}" with the
// variable's current value, leaving the placeholder unchanged when unset.
func (rs *runState) substituteVariables(text string) string {
	if !strings.Contains(text, "{var:") {
		return text
	}
	var b strings.Builder
	i := 0
	for {
		start := strings.Index(text[i:], "{var:")
		if start == -1 {
			b.WriteString(text[i:])
			break
		}
		start += i
		b.WriteString(text[i:start])
		end := strings.IndexByte(text[start:], '}')
		if end == -1 {
			b.WriteString(text[start:])
			break
		}
		end += start
		name := text[start+len("{var:") : end]
		if v, ok := rs.variable(name); ok {
			b.WriteString(v)
		} else {
			b.WriteString(text[start : end+1])
		}
		i = end + 1
	}
	return b.String()
}

package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/veltrix/workflow-engine/graph/broadcast"
)

// Engine executes Workflow definitions. An Engine is safe for concurrent use
// across independent Run calls: all mutable per-run state lives in runState,
// constructed fresh by Run.
type Engine struct {
	cfg *engineConfig
}

// New builds an Engine from the given options. Defaults: a no-op logger, a
// null broadcaster, empty agent/tool registries, an in-memory file store,
// maxDepth 3, and no run timeout.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("graph: applying option: %w", err)
		}
	}
	return &Engine{cfg: cfg}, nil
}

// engineRun carries the state shared by every node execution within one call
// to Run, including recursive sub-engine invocations spawned by loop and
// meta_agent nodes.
type engineRun struct {
	engine       *Engine
	workflowID   string
	wf           *Workflow
	nodeIdx      map[string]*Node
	analysis     *Analysis
	state        *runState
	initialInput string
}

// Run executes wf to completion against initialInput and returns the final
// results map. It never panics or returns an error: fatal conditions (a
// malformed graph, a node failing after exhausting retries with
// onError=="stop", or a run timeout) are reflected in the returned map and in
// the terminal workflow_status broadcast. timeoutSeconds, if positive,
// overrides the engine's configured run timeout for this call.
func (e *Engine) Run(ctx context.Context, workflowID string, wf *Workflow, initialInput string, timeoutSeconds int) map[string]string {
	analyzer, err := NewAnalyzer(wf)
	if err != nil {
		e.cfg.logger.Error().Err(err).Str("workflow_id", workflowID).Msg("graph analysis failed")
		e.cfg.broadcaster.BroadcastStatus(ctx, broadcast.StatusEvent{
			RunID: workflowID, Status: string(RunError), Error: err.Error(), Timestamp: time.Now(),
		})
		return map[string]string{}
	}
	analysis, err := analyzer.Analyze()
	if err != nil {
		e.cfg.logger.Error().Err(err).Str("workflow_id", workflowID).Msg("graph analysis failed")
		e.cfg.broadcaster.BroadcastStatus(ctx, broadcast.StatusEvent{
			RunID: workflowID, Status: string(RunError), Error: err.Error(), Timestamp: time.Now(),
		})
		return map[string]string{}
	}

	ctx, cancel := withRunTimeout(ctx, timeoutSeconds, e.cfg.runTimeout)
	defer cancel()

	rs := newRunState(wf)
	rs.setRunStatus(RunRunning)

	run := &engineRun{
		engine:       e,
		workflowID:   workflowID,
		wf:           wf,
		nodeIdx:      wf.nodeByID(),
		analysis:     analysis,
		state:        rs,
		initialInput: initialInput,
	}
	run.markLoopOwnedNodes()

	e.cfg.logger.Debug().Str("workflow_id", workflowID).Int("levels", len(analysis.Levels)).Msg("run starting")
	e.broadcastSnapshot(ctx, run, false)

	for levelIdx, level := range analysis.Levels {
		if err := ctx.Err(); err != nil {
			rs.setErr(fmt.Sprintf("run timed out: %v", err))
			e.broadcastSnapshot(ctx, run, true)
			_, _, results, _ := rs.snapshot(false)
			return results
		}

		e.cfg.logger.Debug().Str("workflow_id", workflowID).Int("level", levelIdx).Strs("nodes", level).Msg("running level")
		if fatal := run.runLevel(ctx, level); fatal {
			e.broadcastSnapshot(ctx, run, true)
			_, _, results, _ := rs.snapshot(false)
			return results
		}
	}

	rs.setRunStatus(RunCompleted)
	e.broadcastSnapshot(ctx, run, true)
	_, _, results, _ := rs.snapshot(false)
	return results
}

// markLoopOwnedNodes removes graph-level loop bodies from top-level
// scheduling: those nodes are driven exclusively by handleLoop's sub-engine.
func (run *engineRun) markLoopOwnedNodes() {
	targeting := run.analysis.BackEdgeTargeting(run.wf)
	for _, node := range run.wf.Nodes {
		if node.Type != NodeLoop {
			continue
		}
		sources, ok := targeting[node.ID]
		if !ok {
			continue
		}
		for _, src := range sources {
			body := run.analysis.LoopBody(node.ID, src)
			ids := make([]string, 0, len(body))
			for id := range body {
				ids = append(ids, id)
			}
			run.state.addSkip(ids...)
		}
	}
}

// runLevel executes one topological level per the Level Scheduler contract
// and reports whether the run must stop (a stop-dispositioned node failed
// after exhausting retries).
func (run *engineRun) runLevel(ctx context.Context, level []string) bool {
	var active []string
	for _, id := range level {
		if run.state.isSkipped(id) {
			continue
		}
		node := run.nodeIdx[id]
		if run.allIncomingBlocked(node) {
			run.state.setResult(id, "")
			run.state.setStatus(id, StatusDone)
			run.blockOutgoing(node)
			continue
		}
		active = append(active, id)
	}

	if len(active) == 0 {
		return false
	}

	for _, id := range active {
		run.state.setStatus(id, StatusRunning)
	}
	run.engine.broadcastSnapshot(ctx, run, false)

	results := make([]nodeOutcome, len(active))
	if len(active) == 1 {
		results[0] = run.execNode(ctx, active[0])
	} else {
		var wg sync.WaitGroup
		wg.Add(len(active))
		for i, id := range active {
			go func(i int, id string) {
				defer wg.Done()
				results[i] = run.execNode(ctx, id)
			}(i, id)
		}
		wg.Wait()
	}

	fatal := false
	for _, out := range results {
		if out.fatal {
			run.state.setStatus(out.nodeID, StatusError)
			run.state.setErr(fmt.Sprintf("node %s: %v", out.nodeID, out.err))
			fatal = true
			continue
		}
		run.state.setResult(out.nodeID, out.result)
		run.state.setStatus(out.nodeID, StatusDone)
	}
	return fatal
}

// nodeOutcome is one node's contribution to a level, collected before being
// applied to runState so that result/status writes happen from a single
// goroutine once every active node in the level has finished.
type nodeOutcome struct {
	nodeID string
	result string
	err    error
	fatal  bool
}

func (run *engineRun) execNode(ctx context.Context, id string) nodeOutcome {
	node := run.nodeIdx[id]
	start := time.Now()
	result, err := dispatchNode(ctx, run, node)
	latency := time.Since(start)

	status := "done"
	if err != nil {
		status = "error"
	}
	run.engine.cfg.metrics.recordLatency(run.workflowID, id, node.Type, latency, status)

	if err != nil {
		run.engine.cfg.logger.Warn().Err(err).Str("workflow_id", run.workflowID).Str("node_id", id).Msg("node failed after retries")
		return nodeOutcome{nodeID: id, err: err, fatal: true}
	}
	return nodeOutcome{nodeID: id, result: result}
}

// allIncomingBlocked reports whether node has at least one incoming edge and
// every one of them is blocked, per the Level Scheduler's skip-propagation
// rule.
func (run *engineRun) allIncomingBlocked(node *Node) bool {
	edges := run.analysis.Incoming[node.ID]
	if len(edges) == 0 {
		return false
	}
	for _, e := range edges {
		if !run.state.isBlocked(e.ID) {
			return false
		}
	}
	return true
}

func (run *engineRun) blockOutgoing(node *Node) {
	edges := run.analysis.Outgoing[node.ID]
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	run.state.blockEdges(ids...)
}

// broadcastSnapshot emits a workflow_status event. final carries full,
// untruncated results; intermediate snapshots truncate per the broadcast
// contract.
func (e *Engine) broadcastSnapshot(ctx context.Context, run *engineRun, final bool) {
	status, statuses, results, errMsg := run.state.snapshot(!final)
	e.cfg.broadcaster.BroadcastStatus(ctx, broadcast.StatusEvent{
		RunID:        run.workflowID,
		Status:       string(status),
		NodeStatuses: statuses,
		Results:      results,
		Error:        errMsg,
		Timestamp:    time.Now(),
	})
}

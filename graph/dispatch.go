package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/veltrix/workflow-engine/graph/filestore"
)

// handler is the Node Dispatcher's typed entry point for one node kind. input
// has already had edge-collection, variable substitution, and (for agent and
// validator nodes) artifact filtering applied. A non-nil error signals an
// infrastructure failure eligible for the Retry/Error Wrapper; domain
// outcomes (unknown tool, recursion cap, skip) are returned as plain result
// strings with a nil error.
type handler func(ctx context.Context, run *engineRun, node *Node, input string) (string, error)

var handlers = map[NodeType]handler{
	NodeInput:      handleInput,
	NodeOutput:     handleOutput,
	NodeAgent:      handleAgent,
	NodeTool:       handleTool,
	NodeAggregator: handleAggregator,
	NodeCondition:  handleCondition,
	NodeSwitch:     handleSwitch,
	NodeValidator:  handleValidator,
	NodeDelay:      handleDelay,
	NodeLoop:       handleLoop,
	NodeChunker:    handleChunker,
	NodeMetaAgent:  handleMetaAgent,
}

// collectInput implements the Node Dispatcher's input-collection rule: the
// concatenation (by "\n\n---\n\n", in edge order) of results along every
// unblocked incoming edge, or the run's initial input when there are none.
func collectInput(run *engineRun, node *Node) string {
	edges := run.analysis.Incoming[node.ID]
	if len(edges) == 0 {
		return run.initialInput
	}
	var parts []string
	for _, e := range edges {
		if run.state.isBlocked(e.ID) {
			continue
		}
		parts = append(parts, run.state.result(e.Source))
	}
	if len(parts) == 0 {
		return run.initialInput
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// dispatchNode collects input, applies variable substitution and artifact
// filtering, then runs the typed handler through the Retry/Error Wrapper.
func dispatchNode(ctx context.Context, run *engineRun, node *Node) (string, error) {
	h, ok := handlers[node.Type]
	if !ok {
		return "", fmt.Errorf("dispatch: node %s has unknown type %q", node.ID, node.Type)
	}

	input := run.state.substituteVariables(collectInput(run, node))
	if node.Type == NodeAgent || node.Type == NodeValidator {
		input = filestore.FilterArtifacts(input)
	}

	policy := retryPolicyFromData(node.Data)
	result, err := runWithRetry(ctx, policy, func(ctx context.Context) (string, error) {
		attemptResult, attemptErr := h(ctx, run, node, input)
		if attemptErr != nil && run.engine.cfg.metrics != nil {
			run.engine.cfg.metrics.incrementRetry(run.workflowID, node.ID)
		}
		return attemptResult, attemptErr
	})

	if err == nil {
		if varName := node.Data.String("setVariable", "set_variable", ""); varName != "" {
			run.state.setVariable(varName, result)
		}
	}
	return result, err
}

package graph

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/veltrix/workflow-engine/graph/agent"
)

// handleLoop implements the Loop Driver: §4.7. It dispatches to either the
// graph-level loop (a back-edge targets this node) or the internal
// generate/critique loop.
func handleLoop(ctx context.Context, run *engineRun, node *Node, input string) (string, error) {
	sources := run.analysis.BackEdgeTargeting(run.wf)[node.ID]
	if len(sources) > 0 {
		return runGraphLoop(ctx, run, node, sources[0], input)
	}
	return runCritiqueLoop(ctx, run, node, input)
}

// runGraphLoop re-executes the loop body (a sub-workflow built from
// Analysis.LoopBody's node set and its internal DAG edges) as a fresh
// sub-engine, feeding the back-edge source's result back in as the next
// iteration's input.
func runGraphLoop(ctx context.Context, run *engineRun, node *Node, backEdgeSource string, input string) (string, error) {
	maxIterations := node.Data.Int("maxIterations", "max_iterations", 1)
	if maxIterations < 1 {
		maxIterations = 1
	}
	exitType := node.Data.String("exitConditionType", "exit_condition_type", "always")
	exitValue := node.Data.String("exitValue", "exit_value", "7.0")

	bodyIDs := run.analysis.LoopBody(node.ID, backEdgeSource)
	subWf := buildLoopSubWorkflow(run.wf, bodyIDs)

	var (
		report       strings.Builder
		priorInput   = input
		exitResult   string
	)

	for round := 1; round <= maxIterations; round++ {
		subID := fmt.Sprintf("%s_loop_%s_r%d", run.workflowID, node.ID, round)
		subResults := run.engine.Run(ctx, subID, subWf, priorInput, 0)

		exitResult = subResults[backEdgeSource]
		report.WriteString(fmt.Sprintf("--- Round %d ---\n%s\n\n", round, exitResult))

		if loopShouldExit(exitType, exitValue, exitResult, priorInput, round) {
			break
		}
		priorInput = exitResult
	}

	return strings.TrimRight(report.String(), "\n"), nil
}

func loopShouldExit(exitType, exitValue, exitResult, priorInput string, round int) bool {
	switch exitType {
	case "keyword":
		window := exitResult
		if len(window) > 500 {
			window = window[:500]
		}
		return strings.Contains(strings.ToUpper(window), strings.ToUpper(exitValue))
	case "no_change":
		return round >= 2 && strings.TrimSpace(exitResult) == strings.TrimSpace(priorInput)
	case "score":
		threshold, err := strconv.ParseFloat(exitValue, 64)
		if err != nil {
			threshold = 7.0
		}
		n, ok := lastDecimalNumber(exitResult)
		return ok && n >= threshold
	default: // always
		return false
	}
}

// buildLoopSubWorkflow extracts the body node set and the DAG edges wholly
// contained within it into a standalone Workflow the sub-engine can run.
func buildLoopSubWorkflow(wf *Workflow, bodyIDs map[string]bool) *Workflow {
	sub := &Workflow{}
	for _, n := range wf.Nodes {
		if bodyIDs[n.ID] {
			sub.Nodes = append(sub.Nodes, n)
		}
	}
	for _, e := range wf.Edges {
		if bodyIDs[e.Source] && bodyIDs[e.Target] {
			sub.Edges = append(sub.Edges, e)
		}
	}
	return sub
}

// runCritiqueLoop implements the internal generate/critique loop: no
// back-edge targets this node, so two ad-hoc agents (sharing the node's
// model) iterate directly rather than through a sub-engine.
func runCritiqueLoop(ctx context.Context, run *engineRun, node *Node, input string) (string, error) {
	maxIterations := node.Data.Int("maxIterations", "max_iterations", 3)
	if maxIterations < 1 {
		maxIterations = 1
	}
	stopToken := node.Data.String("stopToken", "stop_token", "APPROVED")
	refinementPrompt := node.Data.String("refinementPrompt", "refinement_prompt", "Please address the feedback and improve your answer.")
	model := node.Data.String("model", "model", "")

	providerName := node.Data.String("agentProvider", "agent_provider", "mock")
	provider, ok := run.engine.cfg.agents.Get(providerName)
	if !ok {
		return "", errProviderNotFound(providerName)
	}
	params := agentParamsFromData(node.Data)

	current := input
	var generated string
	for round := 1; round <= maxIterations; round++ {
		genResult, err := streamAgent(ctx, run, node.ID, provider, model, buildMessages("", current), params)
		if err != nil {
			return "", err
		}
		run.recordUsage(model, providerName, node.ID, genResult)
		generated = genResult.Text

		criticPrompt := "Review the following output. If it is acceptable, respond with exactly \"" +
			stopToken + "\". Otherwise, give concrete feedback for improvement.\n\n" + generated
		criticMessages := []agent.Message{{Role: agent.RoleUser, Content: criticPrompt}}
		criticResult, err := streamAgent(ctx, run, node.ID, provider, model, criticMessages, params)
		if err != nil {
			return "", err
		}
		run.recordUsage(model, providerName, node.ID, criticResult)

		window := criticResult.Text
		if len(window) > 100 {
			window = window[:100]
		}
		if strings.Contains(strings.ToUpper(window), strings.ToUpper(stopToken)) {
			return generated, nil
		}

		current = "Original: " + input + "\n\nPrevious output:\n" + generated +
			"\n\nFeedback:\n" + criticResult.Text + "\n\n" + refinementPrompt
	}
	return generated, nil
}

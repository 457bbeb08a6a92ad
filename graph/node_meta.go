package graph

import (
	"context"
	"fmt"
	"strings"
)

// handleMetaAgent implements the meta_agent (sub-workflow) node: §4.9.
func handleMetaAgent(ctx context.Context, run *engineRun, node *Node, input string) (string, error) {
	currentDepth := node.Data.Int("_currentDepth", "_current_depth", 0)
	maxDepth := node.Data.Int("maxDepth", "max_depth", run.engine.cfg.maxDepth)

	if currentDepth >= maxDepth {
		return fmt.Sprintf("[Meta-Agent: max recursion depth (%d) reached]", maxDepth), nil
	}

	defRaw := node.Data.Map("workflowDefinition", "workflow_definition")
	if defRaw == nil {
		return "[Meta-Agent: no workflowDefinition provided]", nil
	}
	subWf, err := decodeWorkflow(defRaw)
	if err != nil {
		return "[Meta-Agent: invalid workflowDefinition: " + err.Error() + "]", nil
	}

	incrementNestedDepth(subWf, currentDepth+1)

	subID := fmt.Sprintf("%s_sub_%s", run.workflowID, node.ID)
	subResults := run.engine.Run(ctx, subID, subWf, input, 0)

	return joinOutputResults(subWf, subResults), nil
}

// incrementNestedDepth stamps _currentDepth onto every nested meta_agent
// node in wf so the recursion cap is enforced across arbitrarily deep
// sub-workflow chains.
func incrementNestedDepth(wf *Workflow, depth int) {
	for i := range wf.Nodes {
		if wf.Nodes[i].Type != NodeMetaAgent {
			continue
		}
		data := make(Data, len(wf.Nodes[i].Data)+1)
		for k, v := range wf.Nodes[i].Data {
			data[k] = v
		}
		data["_currentDepth"] = depth
		wf.Nodes[i].Data = data
	}
}

// joinOutputResults concatenates the sub-engine's output-typed node results
// in node-declaration order, falling back to every result if the
// sub-workflow declares no output nodes.
func joinOutputResults(wf *Workflow, results map[string]string) string {
	var parts []string
	for _, n := range wf.Nodes {
		if n.Type == NodeOutput {
			parts = append(parts, results[n.ID])
		}
	}
	if len(parts) == 0 {
		for _, n := range wf.Nodes {
			parts = append(parts, results[n.ID])
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}

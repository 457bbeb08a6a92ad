package graph

import (
	"context"
	"strings"
	"time"
)

// handleInput implements the input node: §4.3.
func handleInput(ctx context.Context, run *engineRun, node *Node, input string) (string, error) {
	if fileID := node.Data.String("fileId", "file_id", ""); fileID != "" {
		artifact, ok, err := run.engine.cfg.files.Get(ctx, fileID)
		if err != nil {
			return "", err
		}
		if ok {
			return artifact.Name, nil
		}
		return "[file not found: " + fileID + "]", nil
	}

	if node.Data.String("inputType", "input_type", "") == "database" {
		return handleTool(ctx, run, &Node{ID: node.ID, Type: NodeTool, Data: withTool(node.Data, "database_tool")}, input)
	}

	if v := node.Data.String("defaultValue", "default_value", ""); v != "" {
		return v, nil
	}
	return node.Data.String("label", "label", ""), nil
}

// withTool returns a shallow copy of d with "tool" forced to name, used to
// route a database-typed input node through the Tool Invoker.
func withTool(d Data, name string) Data {
	out := make(Data, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	out["tool"] = name
	return out
}

// handleOutput implements the output node: passes its collected input
// through unchanged.
func handleOutput(_ context.Context, _ *engineRun, _ *Node, input string) (string, error) {
	return input, nil
}

// handleAggregator joins unblocked parent results. "summarize" is
// indistinguishable from "concatenate" at this layer per the documented
// design note: a downstream agent is expected to do the actual summarizing.
func handleAggregator(_ context.Context, run *engineRun, node *Node, _ string) (string, error) {
	edges := run.analysis.Incoming[node.ID]
	var parts []string
	for _, e := range edges {
		if run.state.isBlocked(e.ID) {
			continue
		}
		parts = append(parts, run.state.result(e.Source))
	}
	joined := strings.Join(parts, "\n\n---\n\n")

	strategy := node.Data.String("strategy", "strategy", "concatenate")
	if strategy == "custom" {
		tpl := node.Data.String("template", "template", "{inputs}")
		return strings.ReplaceAll(tpl, "{inputs}", joined), nil
	}
	return joined, nil
}

// handleDelay suspends for data.delaySeconds (clamped to [0, 300]) then
// passes input through.
func handleDelay(ctx context.Context, _ *engineRun, node *Node, input string) (string, error) {
	seconds := node.Data.Float("delaySeconds", "delay_seconds", 0)
	if seconds < 0 {
		seconds = 0
	}
	if seconds > 300 {
		seconds = 300
	}
	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return input, nil
}

package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/veltrix/workflow-engine/graph/agent"
	"github.com/veltrix/workflow-engine/graph/broadcast"
)

// handleAgent implements the Agent Invoker: §4.4.
func handleAgent(ctx context.Context, run *engineRun, node *Node, input string) (string, error) {
	providerName := node.Data.String("agentProvider", "agent_provider", "mock")
	provider, ok := run.engine.cfg.agents.Get(providerName)
	if !ok {
		return "", fmt.Errorf("agent: provider %q not registered", providerName)
	}

	model := node.Data.String("model", "model", "")
	systemPrompt := node.Data.String("systemPrompt", "system_prompt", "")
	fallbackModel := node.Data.String("fallbackModel", "fallback_model", "")
	params := agentParamsFromData(node.Data)

	messages := buildMessages(systemPrompt, input)

	result, err := streamAgent(ctx, run, node.ID, provider, model, messages, params)
	if err != nil {
		if fallbackModel == "" {
			return "", err
		}
		run.emitTransition(ctx, node.ID, fmt.Sprintf("Fallback: %s → %s", model, fallbackModel))
		result, err = streamAgent(ctx, run, node.ID, provider, fallbackModel, messages, params)
		if err != nil {
			return "", err
		}
		model = fallbackModel
	}

	run.recordUsage(model, providerName, node.ID, result)
	return result.Text, nil
}

func buildMessages(systemPrompt, input string) []agent.Message {
	var messages []agent.Message
	if systemPrompt != "" {
		messages = append(messages, agent.Message{Role: agent.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, agent.Message{Role: agent.RoleUser, Content: input})
	return messages
}

// agentParamsFromData reads "temperature"/"maxTokens" off a node's data,
// falling back to agent.DefaultParams for whichever is absent or invalid.
func agentParamsFromData(data Data) agent.Params {
	temperature := data.Float("temperature", "temperature", agent.DefaultParams.Temperature)
	maxTokens := data.Int("maxTokens", "max_tokens", agent.DefaultParams.MaxTokens)
	if temperature < 0 || temperature > 2 {
		temperature = agent.DefaultParams.Temperature
	}
	if maxTokens < 1 {
		maxTokens = agent.DefaultParams.MaxTokens
	}
	return agent.Params{Temperature: temperature, MaxTokens: maxTokens}
}

// streamAgent drives one Provider.Stream call, throttling node_streaming
// broadcasts to one per 80ms per node and always ending with a Complete event
// that carries the full accumulated text.
func streamAgent(ctx context.Context, run *engineRun, nodeID string, provider agent.Provider, model string, messages []agent.Message, params agent.Params) (agent.Result, error) {
	run.engine.cfg.metrics.streamStarted()
	defer run.engine.cfg.metrics.streamEnded()

	result, err := provider.Stream(ctx, model, messages, params, func(delta string) {
		if run.state.throttleStream(nodeID, false) {
			run.emitStream(ctx, nodeID, delta, false)
		}
	})
	if err != nil {
		return agent.Result{}, err
	}

	run.state.throttleStream(nodeID, true)
	run.emitStream(ctx, nodeID, result.Text, true)
	return result, nil
}

func (run *engineRun) emitStream(ctx context.Context, nodeID, delta string, complete bool) {
	run.engine.cfg.broadcaster.BroadcastStream(ctx, broadcast.StreamEvent{
		RunID: run.workflowID, NodeID: nodeID, Delta: delta, Complete: complete, Timestamp: time.Now(),
	})
	run.engine.cfg.metrics.incrementStreamChunk(run.workflowID, nodeID)
}

func (run *engineRun) emitTransition(ctx context.Context, nodeID, message string) {
	run.engine.cfg.broadcaster.BroadcastStream(ctx, broadcast.StreamEvent{
		RunID: run.workflowID, NodeID: nodeID, Delta: message, Complete: false, Timestamp: time.Now(),
	})
}

// recordUsage reports token usage to the configured usage sink and cost
// tracker. Both are best-effort: failures must not fail the node, so
// usageSink is invoked directly (it has no error return) and costTracker is
// nil-safe.
func (run *engineRun) recordUsage(model, provider, nodeID string, result agent.Result) {
	run.engine.cfg.costTracker.RecordLLMCall(model, result.InputTokens, result.OutputTokens, nodeID)
	if run.engine.cfg.usageSink != nil {
		run.engine.cfg.usageSink(model, result.InputTokens, result.OutputTokens, nodeID)
	}
}

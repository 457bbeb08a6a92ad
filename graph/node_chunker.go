package graph

import (
	"context"
	"fmt"
	"strings"
)

// handleChunker implements the chunker node: §4.8.
func handleChunker(ctx context.Context, run *engineRun, node *Node, input string) (string, error) {
	chunkSize := node.Data.Int("chunkSize", "chunk_size", 2000)
	if chunkSize < 1 {
		chunkSize = 2000
	}
	overlap := node.Data.Int("overlap", "overlap", 200)
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	separator := node.Data.String("separator", "separator", "\n\n---\n\n")

	windows := chunkWindows(input, chunkSize, overlap)

	providerName := node.Data.String("agentProvider", "agent_provider", "mock")
	provider, ok := run.engine.cfg.agents.Get(providerName)
	if !ok {
		return "", errProviderNotFound(providerName)
	}
	model := node.Data.String("model", "model", "")
	systemPrompt := node.Data.String("systemPrompt", "system_prompt", "")
	params := agentParamsFromData(node.Data)

	results := make([]string, len(windows))
	for i, window := range windows {
		run.state.setProgress(node.ID, fmt.Sprintf("chunk %d/%d", i+1, len(windows)))
		prompt := fmt.Sprintf("[Chunk %d/%d]\n\n%s", i+1, len(windows), window)
		messages := buildMessages(systemPrompt, prompt)
		result, err := streamAgent(ctx, run, node.ID, provider, model, messages, params)
		if err != nil {
			return "", err
		}
		run.recordUsage(model, providerName, node.ID, result)
		results[i] = result.Text
	}

	return strings.Join(results, separator), nil
}

// chunkWindows splits text into fixed-size overlapping windows. If text is
// no longer than chunkSize, it returns exactly one window containing text.
func chunkWindows(text string, chunkSize, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}
	var windows []string
	step := chunkSize - overlap
	for start := 0; start < len(text); start += step {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		windows = append(windows, text[start:end])
		if end == len(text) {
			break
		}
	}
	return windows
}

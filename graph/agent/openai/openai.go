// Package openai provides an agent.Provider backed by OpenAI's streaming
// chat completions API.
package openai

import (
	"errors"
	"fmt"

	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/veltrix/workflow-engine/graph/agent"
)

// Provider implements agent.Provider for OpenAI chat models.
type Provider struct {
	apiKey string
}

// New returns a Provider authenticated with apiKey.
func New(apiKey string) *Provider {
	return &Provider{apiKey: apiKey}
}

func (p *Provider) Name() string { return "openai" }

// Stream sends messages to OpenAI with stream=true and forwards each
// content delta to onChunk as server-sent-events arrive.
func (p *Provider) Stream(ctx context.Context, model string, messages []agent.Message, params agent.Params, onChunk agent.StreamFunc) (agent.Result, error) {
	if p.apiKey == "" {
		return agent.Result{}, errors.New("openai: API key is required")
	}
	if model == "" {
		model = "gpt-4o"
	}
	maxTokens := params.MaxTokens
	if maxTokens < 1 {
		maxTokens = agent.DefaultParams.MaxTokens
	}

	client := openaisdk.NewClient(option.WithAPIKey(p.apiKey))

	chatParams := openaisdk.ChatCompletionNewParams{
		Model:               openaisdk.ChatModel(model),
		Messages:            convertMessages(messages),
		Temperature:         openaisdk.Float(params.Temperature),
		MaxCompletionTokens: openaisdk.Int(int64(maxTokens)),
	}

	stream := client.Chat.Completions.NewStreaming(ctx, chatParams)

	var out agent.Result
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		out.Text += delta
		if onChunk != nil {
			onChunk(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return agent.Result{}, fmt.Errorf("openai: stream error: %w", err)
	}

	out.InputTokens = estimateTokens(joinContents(messages))
	out.OutputTokens = estimateTokens(out.Text)
	return out, nil
}

func convertMessages(messages []agent.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, len(messages))
	for i, m := range messages {
		switch m.Role {
		case agent.RoleSystem:
			out[i] = openaisdk.SystemMessage(m.Content)
		case agent.RoleAssistant:
			out[i] = openaisdk.AssistantMessage(m.Content)
		default:
			out[i] = openaisdk.UserMessage(m.Content)
		}
	}
	return out
}

func joinContents(messages []agent.Message) string {
	var s string
	for _, m := range messages {
		s += m.Content
	}
	return s
}

func estimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && text != "" {
		n = 1
	}
	return n
}

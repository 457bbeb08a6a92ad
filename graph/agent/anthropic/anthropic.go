// Package anthropic provides an agent.Provider backed by Anthropic's
// streaming Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/veltrix/workflow-engine/graph/agent"
)

// Provider implements agent.Provider for Claude models.
type Provider struct {
	apiKey string
}

// New returns a Provider authenticated with apiKey.
func New(apiKey string) *Provider {
	return &Provider{apiKey: apiKey}
}

func (p *Provider) Name() string { return "anthropic" }

// Stream sends messages to Claude and forwards each text delta to onChunk as
// it arrives over the server-sent-events stream.
func (p *Provider) Stream(ctx context.Context, model string, messages []agent.Message, params agent.Params, onChunk agent.StreamFunc) (agent.Result, error) {
	if p.apiKey == "" {
		return agent.Result{}, errors.New("anthropic: API key is required")
	}
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	maxTokens := params.MaxTokens
	if maxTokens < 1 {
		maxTokens = agent.DefaultParams.MaxTokens
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(p.apiKey))

	systemPrompt, convo := extractSystem(messages)
	msgParams := anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(model),
		Messages:    convertMessages(convo),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropicsdk.Float(params.Temperature),
	}
	if systemPrompt != "" {
		msgParams.System = []anthropicsdk.TextBlockParam{{Text: systemPrompt}}
	}

	stream := client.Messages.NewStreaming(ctx, msgParams)

	var out agent.Result
	message := anthropicsdk.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return agent.Result{}, fmt.Errorf("anthropic: accumulate event: %w", err)
		}
		if delta, ok := event.AsAny().(anthropicsdk.ContentBlockDeltaEvent); ok {
			if textDelta, ok := delta.Delta.AsAny().(anthropicsdk.TextDelta); ok && textDelta.Text != "" {
				out.Text += textDelta.Text
				if onChunk != nil {
					onChunk(textDelta.Text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return agent.Result{}, fmt.Errorf("anthropic: stream error: %w", err)
	}

	out.InputTokens = int(message.Usage.InputTokens)
	out.OutputTokens = int(message.Usage.OutputTokens)
	return out, nil
}

func extractSystem(messages []agent.Message) (string, []agent.Message) {
	var system string
	var rest []agent.Message
	for _, m := range messages {
		if m.Role == agent.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

func convertMessages(messages []agent.Message) []anthropicsdk.MessageParam {
	out := make([]anthropicsdk.MessageParam, len(messages))
	for i, m := range messages {
		if m.Role == agent.RoleAssistant {
			out[i] = anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(m.Content))
		} else {
			out[i] = anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(m.Content))
		}
	}
	return out
}

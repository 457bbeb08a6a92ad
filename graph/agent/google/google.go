// Package google provides an agent.Provider backed by Gemini's streaming
// GenerateContent API.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/veltrix/workflow-engine/graph/agent"
)

// Provider implements agent.Provider for Gemini models.
type Provider struct {
	apiKey string
}

// New returns a Provider authenticated with apiKey.
func New(apiKey string) *Provider {
	return &Provider{apiKey: apiKey}
}

func (p *Provider) Name() string { return "google" }

// Stream sends messages to Gemini and forwards each text chunk to onChunk as
// it arrives from GenerateContentStream.
func (p *Provider) Stream(ctx context.Context, model string, messages []agent.Message, params agent.Params, onChunk agent.StreamFunc) (agent.Result, error) {
	if p.apiKey == "" {
		return agent.Result{}, errors.New("google: API key is required")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	maxTokens := params.MaxTokens
	if maxTokens < 1 {
		maxTokens = agent.DefaultParams.MaxTokens
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return agent.Result{}, fmt.Errorf("google: new client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(model)
	genModel.SetTemperature(float32(params.Temperature))
	genModel.SetMaxOutputTokens(int32(maxTokens))
	system, convo := extractSystem(messages)
	if system != "" {
		genModel.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	var parts []genai.Part
	for _, m := range convo {
		if m.Content != "" {
			parts = append(parts, genai.Text(m.Content))
		}
	}

	iter := genModel.GenerateContentStream(ctx, parts...)
	var out agent.Result
	for {
		resp, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return agent.Result{}, fmt.Errorf("google: stream error: %w", err)
		}
		for _, c := range resp.Candidates {
			if c.Content == nil {
				continue
			}
			for _, part := range c.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					out.Text += string(text)
					if onChunk != nil {
						onChunk(string(text))
					}
				}
			}
		}
		if resp.UsageMetadata != nil {
			out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
			out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		}
	}

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
